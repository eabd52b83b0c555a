// Command esparrierctl is the reference CLI for the Esparrier KVM control
// library: device discovery, configuration, power control, and firmware
// updates, all over the same command codec the library exposes (§6).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"esparrier/internal/kvm"
	"esparrier/internal/transport"
)

var (
	flagWait    bool
	flagQuiet   bool
	flagVID     uint16
	flagPID     uint16
	flagBus     string
	flagAddress uint8
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "esparrierctl",
		Short:         "Control an Esparrier USB KVM device",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&flagWait, "wait", "w", false, "wait for the device to be connected")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-error output")
	root.PersistentFlags().Uint16Var(&flagVID, "vid", 0, "only look for devices with this USB vendor ID")
	root.PersistentFlags().Uint16Var(&flagPID, "pid", 0, "only look for devices with this USB product ID")
	root.PersistentFlags().StringVar(&flagBus, "bus", "", "only look for devices on this USB bus ID")
	root.PersistentFlags().Uint8Var(&flagAddress, "address", 0, "only look for devices at this USB device address")
	_ = root.PersistentFlags().MarkHidden("vid")
	_ = root.PersistentFlags().MarkHidden("pid")

	root.AddCommand(
		newListCmd(),
		newGetStateCmd(),
		newGetConfigCmd(),
		newSetConfigCmd(),
		newCommitConfigCmd(),
		newKeepAwakeCmd(true),
		newKeepAwakeCmd(false),
		newRebootCmd(),
		newOtaCmd(),
		newCompletionsCmd(),
		newServeCmd(),
	)
	return root
}

// filter builds a transport.Filter from the global flags, nil-ing out any
// left at their zero value so the library applies its own defaults.
func filter() transport.Filter {
	var f transport.Filter
	if flagVID != 0 {
		f.VID = &flagVID
	}
	if flagPID != 0 {
		f.PID = &flagPID
	}
	if flagBus != "" {
		f.BusID = &flagBus
	}
	if flagAddress != 0 {
		f.Address = &flagAddress
	}
	return f
}

// openDevice opens the first matching device, or waits for one if --wait
// was passed, per §4.1/§4.2.
func openDevice() (*kvm.Device, error) {
	f := filter()
	if flagWait {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		return kvm.Wait(ctx, f)
	}
	return kvm.Open(f)
}

func infof(format string, args ...any) {
	if !flagQuiet {
		fmt.Printf(format, args...)
	}
}

func efprintf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
