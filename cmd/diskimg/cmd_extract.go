package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg"
)

var extractCmd = &cobra.Command{
	Use:   "extract <path> <pattern> <dest-dir>",
	Short: "Extract files matching pattern from a disk image into dest-dir",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		imgPath, pattern, destDir := args[0], args[1], args[2]

		di, err := openImage(imgPath, true)
		if err != nil {
			return err
		}
		defer di.Close()

		probe, err := probeFilesystem(di)
		if err != nil {
			return err
		}
		entries, err := probe.Driver.List(pattern)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return diskimg.New(diskimg.ErrFileNotFound, "no entries matched %q", pattern)
		}
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return diskimg.Wrap(diskimg.ErrWriteFailed, err, "mkdir %s", destDir)
		}
		for _, e := range entries {
			data, err := probe.Driver.ReadFile(e)
			if err != nil {
				return err
			}
			out := filepath.Join(destDir, e.Name)
			if err := os.WriteFile(out, data, 0644); err != nil {
				return diskimg.Wrap(diskimg.ErrWriteFailed, err, "write %s", out)
			}
			fmt.Printf("extracted %s -> %s\n", e.Name, out)
		}
		return nil
	},
}
