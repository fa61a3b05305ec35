package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg"
	"github.com/eightbit-archive/diskimg/fs"
)

var formatPath string

var formatCmd = &cobra.Command{
	Use:   "format <fs> <volname>",
	Short: "Create a new blank disk image and initialize its catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsName, volName := args[0], args[1]
		if formatPath == "" {
			return diskimg.New(diskimg.ErrInvalidArg, "--path is required")
		}

		format, size, order, err := fsParams(fsName)
		if err != nil {
			return err
		}

		di, err := diskimg.Create(diskimg.CreateOptions{Path: formatPath, Size: size, Order: order})
		if err != nil {
			return err
		}
		defer di.Close()

		if _, err := fs.FormatNew(di, format, volName); err != nil {
			return err
		}
		if err := di.Flush(); err != nil {
			return err
		}
		fmt.Printf("formatted %s as %s (%q)\n", formatPath, format, volName)
		return nil
	},
}

func fsParams(name string) (fs.Format, int64, diskimg.Order, error) {
	switch strings.ToLower(name) {
	case "dos33":
		return fs.FormatDOS33, diskimg.StdDiskBytes, diskimg.OrderDOS, nil
	case "dos32":
		return fs.FormatDOS32, diskimg.StdDiskBytesOld, diskimg.OrderDOS, nil
	case "prodos":
		return fs.FormatProDOS, diskimg.ProDOS400KDiskBytes, diskimg.OrderProDOS, nil
	default:
		return 0, 0, diskimg.OrderUnknown, diskimg.New(diskimg.ErrInvalidArg, "unknown fs %q (want dos33, dos32, prodos)", name)
	}
}

func init() {
	formatCmd.Flags().StringVar(&formatPath, "path", "", "path for the new image (required)")
}
