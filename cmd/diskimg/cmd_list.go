package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listPattern string

var listCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List catalog entries on a disk image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := openImage(args[0], true)
		if err != nil {
			return err
		}
		defer di.Close()

		probe, err := probeFilesystem(di)
		if err != nil {
			return err
		}
		entries, err := probe.Driver.List(listPattern)
		if err != nil {
			return err
		}
		for _, e := range entries {
			locked := " "
			if e.Locked {
				locked = "*"
			}
			fmt.Printf("%-30s %-6s %8d %s\n", e.Name, e.TypeName, e.SizeBytes, locked)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "*", "glob pattern to filter entries")
}
