package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"esparrier/internal/firmware"
	"esparrier/internal/kvm"
	"esparrier/internal/release"
)

func newOtaCmd() *cobra.Command {
	var file string
	var force, skipVersionCheck bool

	cmd := &cobra.Command{
		Use:   "ota",
		Short: "Upload firmware via OTA (Over-The-Air update)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			fw, err := resolveFirmware(dev, file, force, skipVersionCheck)
			if err != nil {
				return err
			}

			err = dev.UploadOTA(fw, func(bytesSent, total int) {
				if flagQuiet {
					return
				}
				percent := bytesSent * 100 / total
				efprintf("\rProgress: %d%% (%d/%d bytes)", percent, bytesSent, total)
			})
			if err != nil {
				return err
			}

			if !flagQuiet {
				fmt.Fprintln(os.Stderr)
				fmt.Println("OTA complete! Device is rebooting with new firmware.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to local firmware binary file (if not provided, downloads from GitHub)")
	cmd.Flags().BoolVarP(&force, "force", "F", false, "force update even if versions match or downgrading")
	cmd.Flags().BoolVar(&skipVersionCheck, "skip-version-check", false, "skip version check (only applies to remote downloads)")
	return cmd
}

// resolveFirmware returns the firmware image to upload: the local file
// if one was given, otherwise the latest matching GitHub release asset,
// gated by a version check unless force or skipVersionCheck is set.
func resolveFirmware(dev *kvm.Device, file string, force, skipVersionCheck bool) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}

	state, err := dev.GetState()
	if err != nil {
		return nil, err
	}
	modelName, ok := state.ModelName()
	if !ok {
		return nil, fmt.Errorf("unknown device model (id=%d); use --file to specify a local firmware file", state.ModelID)
	}

	infof("Device: %s (model_id=%d)\n", modelName, state.ModelID)
	infof("Current firmware version: %s\n", state.VersionString())
	infof("Checking for latest release...\n")

	ctx := context.Background()
	fetcher := release.NewGitHubFetcher()
	info, err := fetcher.Latest(ctx, modelName)
	if err != nil {
		return nil, err
	}
	infof("Latest release: %s\n", info.Tag)

	if !skipVersionCheck && !force {
		current := "v" + state.VersionString()
		if semver.Compare(info.Version, current) <= 0 {
			if semver.Compare(info.Version, current) == 0 {
				return nil, fmt.Errorf("device is already running version %s; use --force to reinstall", state.VersionString())
			}
			return nil, fmt.Errorf("release version %s is older than current version %s; use --force to downgrade",
				info.Version, state.VersionString())
		}
		infof("Updating from %s to %s\n", state.VersionString(), info.Version)
	}

	infof("Downloading: %s (%d bytes)\n", info.Asset.Name, info.Asset.Size)
	body, err := fetcher.Download(ctx, info.Asset)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	infof("Extracting firmware...\n")
	fw, err := firmware.ExtractBin(body)
	if err != nil {
		return nil, err
	}
	infof("Firmware size: %d bytes\n", len(fw))
	return fw, nil
}
