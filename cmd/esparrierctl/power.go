package main

import "github.com/spf13/cobra"

func newKeepAwakeCmd(enable bool) *cobra.Command {
	use, short := "keep-awake", "Enable keep awake"
	if !enable {
		use, short = "no-keep-awake", "Disable keep awake"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()
			return dev.KeepAwake(enable)
		},
	}
}

func newRebootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()
			if err := dev.Reboot(); err != nil {
				return err
			}
			infof("Device is rebooting.\n")
			return nil
		},
	}
}
