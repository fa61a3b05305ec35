// Package main is the diskimg CLI: open/open-volume/info/list/extract/
// dump-sector/format/serve over the engine, built with
// github.com/spf13/cobra in the style of the ha1tch-plus3 and
// deploymenttheory-go-apfs command trees (a rootCmd carrying only
// output-shaping persistent flags, one cobra.Command per verb).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg/internal/config"
)

var (
	verbose    bool
	forceOrder string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:     "diskimg",
	Short:   "Apple II/III disk image inspector and extractor",
	Version: "0.1.0-dev",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo log output to stderr")
	rootCmd.PersistentFlags().StringVar(&forceOrder, "order", "", "force sector order (physical|dos|prodos|cpm)")

	rootCmd.AddCommand(openCmd, openVolumeCmd, infoCmd, listCmd, extractCmd, dumpSectorCmd, formatCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "diskimg: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}
