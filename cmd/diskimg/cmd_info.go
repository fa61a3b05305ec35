package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show geometry and detected filesystem for a disk image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := openImage(args[0], true)
		if err != nil {
			return err
		}
		defer di.Close()

		fmt.Printf("file format : %s\n", di.FileFormat())
		fmt.Printf("order       : %s\n", di.Order())
		fmt.Printf("tracks      : %d\n", di.NumTracks())
		fmt.Printf("sectors/trk : %d\n", di.NumSectors())
		fmt.Printf("blocks      : %d\n", di.NumBlocks())
		fmt.Printf("dirty       : %v\n", di.IsDirty())
		fmt.Printf("read-only   : %v\n", di.IsReadOnly())

		probe, err := probeFilesystem(di)
		if err != nil {
			return err
		}
		fmt.Printf("filesystem  : %s\n", probe.Driver.Format())
		if name := probe.Driver.VolumeName(); name != "" {
			fmt.Printf("volume name : %s\n", name)
		}
		fmt.Printf("fs order    : %s\n", probe.Driver.RequiredOrder())
		return nil
	},
}
