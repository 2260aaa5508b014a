// Package devices implements the devices subcommand, which lists the
// audio capture devices visible to the native backend.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	malgosource "github.com/decentraland/voicecapture-go/internal/capture/sources/malgo"
)

// Command creates the devices command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := malgosource.ListDevices()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("No capture devices found")
				return nil
			}
			fmt.Println("Available capture devices:")
			for _, info := range infos {
				marker := " "
				if info.Default {
					marker = "*"
				}
				fmt.Printf(" %s %d: %s (%s)\n", marker, info.Index, info.Name, info.ID)
			}
			return nil
		},
	}
}
