package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"esparrier/internal/device"
)

func newGetConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-config",
		Short: "Get device configuration, secrets will be redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			cfg, err := dev.GetConfig()
			if err != nil {
				return err
			}
			return printConfigJSON(cfg.Redacted())
		},
	}
}

func newSetConfigCmd() *cobra.Command {
	var useEnvSSID, useEnvPassword, noCommit bool

	cmd := &cobra.Command{
		Use:   "set-config [file]",
		Short: "Set device configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readConfigInput(args)
			if err != nil {
				return err
			}

			var cfg device.Config
			if err := json.Unmarshal(content, &cfg); err != nil {
				return fmt.Errorf("parsing configuration: %w", err)
			}

			if useEnvSSID {
				if ssid := os.Getenv("WIFI_SSID"); ssid != "" {
					cfg.SSID = ssid
				}
			}
			if useEnvPassword {
				if password := os.Getenv("WIFI_PASSWORD"); password != "" {
					cfg.Password = password
				}
			}

			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			if err := dev.SetConfig(cfg); err != nil {
				return err
			}

			if noCommit {
				infof("Configuration set, use `commit-config` to apply the configuration.\n")
				return nil
			}
			if err := dev.Commit(); err != nil {
				return err
			}
			infof("Configuration committed, restarting device.\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&useEnvSSID, "use-env-wifi-ssid", "s", false, "set WiFi name from the WIFI_SSID environment variable")
	cmd.Flags().BoolVarP(&useEnvPassword, "use-env-wifi-password", "p", false, "set WiFi password from the WIFI_PASSWORD environment variable")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "do not commit the configuration to the device")
	_ = cmd.Flags().MarkHidden("no-commit")
	return cmd
}

func newCommitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "commit-config",
		Short:  "Commit the last configuration and restart the device",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			if err := dev.Commit(); err != nil {
				return err
			}
			infof("Configuration committed, restarting device.\n")
			return nil
		},
	}
	return cmd
}

// readConfigInput reads the configuration JSON from args[0] if given,
// otherwise from stdin.
func readConfigInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading configuration file: %w", err)
		}
		return content, nil
	}
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading configuration from stdin: %w", err)
	}
	return content, nil
}

func printConfigJSON(cfg device.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
