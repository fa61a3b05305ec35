package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a disk image and report how it was recognized",
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
		for _, n := range di.Notes() {
			fmt.Printf("note [%s]: %s\n", n.Severity, n.Message)
		}
		return nil
	},
}
