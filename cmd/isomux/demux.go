package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nazca/isomux/pkg/mp4"
)

func newDemuxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demux <mp4-file>",
		Short: "Parse an MP4 file's box tree and report its track structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemux(args[0])
		},
	}
	return cmd
}

func runDemux(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var moov *mp4.ParsedBox
	pos := 0
	for pos < len(raw) {
		box, consumed, err := mp4.Parse(raw[pos:])
		if err != nil {
			return fmt.Errorf("parse box at offset %d: %w", pos, err)
		}
		log.Info(fmt.Sprintf("box %s size=%d offset=%d", box.Box.Type(), box.Box.Size(), pos))
		if box.Box.Type() == (mp4.BoxType{'m', 'o', 'o', 'v'}) {
			moov = box
		}
		pos += consumed
	}
	if moov == nil {
		return fmt.Errorf("demux %s: no moov box found", path)
	}

	traks := moov.FindAll(mp4.BoxType{'t', 'r', 'a', 'k'})
	log.Info(fmt.Sprintf("%d track(s)", len(traks)))
	for i, trak := range traks {
		tkhd := trak.Find(mp4.BoxType{'t', 'k', 'h', 'd'})
		if tkhd == nil {
			log.Warn(fmt.Sprintf("track %d: missing tkhd", i), nil)
			continue
		}
		log.Info(fmt.Sprintf("track %d: tkhd present, size=%d", i, tkhd.Box.Size()))
	}
	return nil
}
