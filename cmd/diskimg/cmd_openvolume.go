package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg"
)

var openVolumeWrite bool

var openVolumeCmd = &cobra.Command{
	Use:   "open-volume <device>",
	Short: "Open a raw block device (read-only by default; writing the host boot volume is refused)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := diskimg.OpenDeviceSource(args[0], !openVolumeWrite)
		if err != nil {
			return err
		}
		di, err := diskimg.Open(src, diskimg.OpenOptions{Filename: args[0], ReadOnly: !openVolumeWrite})
		if err != nil {
			return err
		}
		defer di.Close()
		fmt.Printf("opened device %s: %d blocks, order %s\n", args[0], di.NumBlocks(), di.Order())
		return nil
	},
}

func init() {
	openVolumeCmd.Flags().BoolVar(&openVolumeWrite, "write", false, "open for writing (refused on the host boot volume)")
}
