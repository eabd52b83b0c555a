package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-state",
		Short: "Get device state, IP address, server connection status, etc.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			state, err := dev.GetState()
			if err != nil {
				return err
			}

			printField := func(label, value string) {
				fmt.Printf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
			}

			printField("Version", state.VersionString())
			if name, ok := state.ModelName(); ok {
				printField("Model", fmt.Sprintf("%s (id=%d)", name, state.ModelID))
			} else {
				printField("Model", fmt.Sprintf("unknown (id=%d)", state.ModelID))
			}
			printField("IP Address", fmt.Sprintf("%s/%d", state.IPAddress, state.IPPrefix))
			printField("Server Connected", boolString(state.ServerConnected))
			printField("Active", boolString(state.Active))
			printField("Keep Awake", boolString(state.KeepAwake))
			printField("OTA Support", boolString(state.HasOtaSupport()))
			return nil
		},
	}
}

func boolString(b bool) string {
	if b {
		return okStyle.Render("yes")
	}
	return warnStyle.Render("no")
}
