package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"esparrier/internal/kvm"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filter()
			refs := kvm.ListDevices(f.VID, f.PID)
			if len(refs) == 0 {
				infof("No Esparrier KVM devices found.\n")
				return nil
			}
			infof("Found %d Esparrier KVM device(s):\n", len(refs))
			for i, ref := range refs {
				fmt.Printf("%s %s\n",
					labelStyle.Render(fmt.Sprintf("%d:", i+1)),
					valueStyle.Render(fmt.Sprintf("Bus: %s, Address: %d", ref.BusID, ref.Address)))
			}
			return nil
		},
	}
}
