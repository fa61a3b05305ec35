package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg"
)

var dumpSectorCmd = &cobra.Command{
	Use:   "dump-sector <path> <track> <sector>",
	Short: "Hex-dump a single 256-byte sector",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := strconv.Atoi(args[1])
		if err != nil {
			return diskimg.New(diskimg.ErrInvalidArg, "bad track %q", args[1])
		}
		sector, err := strconv.Atoi(args[2])
		if err != nil {
			return diskimg.New(diskimg.ErrInvalidArg, "bad sector %q", args[2])
		}

		di, err := openImage(args[0], true)
		if err != nil {
			return err
		}
		defer di.Close()

		ord := di.Order()
		if forceOrder != "" {
			ord = parseOrder(forceOrder)
		}
		data, err := di.ReadTrackSector(track, sector, ord)
		if err != nil {
			return err
		}
		dumpHex(data[:])
		return nil
	},
}

func dumpHex(b []byte) {
	for row := 0; row < len(b); row += 16 {
		fmt.Printf("%04x: ", row)
		for i := 0; i < 16; i++ {
			fmt.Printf("%02x ", b[row+i])
		}
		fmt.Print(" ")
		for i := 0; i < 16; i++ {
			c := b[row+i]
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			fmt.Printf("%c", c)
		}
		fmt.Println()
	}
}
