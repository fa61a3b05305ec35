package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell [path]",
	Short: "Start an interactive shell, optionally mounting a disk image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		home, _ := os.UserHomeDir()
		history := filepath.Join(home, ".diskimg_history")
		return shell.Run(history, path)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
