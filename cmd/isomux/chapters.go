package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nazca/isomux/pkg/chapter"
)

func newChaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters <chapter-file>",
		Short: "Parse a Simple- or Minimum-format chapter file and list its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChapters(args[0])
		},
	}
	return cmd
}

func runChapters(path string) error {
	entries, err := chapter.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse chapters: %w", err)
	}
	log.Info(fmt.Sprintf("%d chapter(s)", len(entries)))
	for i, e := range entries {
		fmt.Printf("%3d  %-12s  %s\n", i+1, e.StartTime, e.Title)
	}
	return nil
}
