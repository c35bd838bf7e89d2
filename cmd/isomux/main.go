// Command isomux is a thin cobra-based driver over the public mux/mp4
// API: it owns flag parsing and file I/O only, leaving all box and
// sample-table construction to pkg/mux and pkg/mp4.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nazca/isomux/pkg/applog"
)

var log = applog.New("isomux")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "isomux",
		Short: "Build, inspect, and tag ISO base media files",
	}
	root.AddCommand(newMuxCmd())
	root.AddCommand(newDemuxCmd())
	root.AddCommand(newChaptersCmd())
	return root
}
