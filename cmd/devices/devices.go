// Package devices implements the capture device listing command.
package devices

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tphakala/soundwatch-go/internal/myaudio"
)

// Command creates a new command listing available capture devices.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := myaudio.ListCaptureDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No capture devices found")
				return nil
			}

			fmt.Println("Available capture devices:")
			for _, device := range devices {
				if runtime.GOOS == "linux" {
					fmt.Printf("  %d: %s, %s\n", device.Index, device.Name, device.ID)
				} else {
					fmt.Printf("  %d: %s\n", device.Index, device.Name)
				}
			}
			return nil
		},
	}
}
