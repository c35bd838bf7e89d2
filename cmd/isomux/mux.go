package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nazca/isomux/pkg/mux"
	"github.com/nazca/isomux/pkg/vc1"
)

func newMuxCmd() *cobra.Command {
	var (
		configPath string
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "mux <vc1-elementary-stream>",
		Short: "Mux a VC-1 Advanced Profile elementary stream into an MP4 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMux(args[0], configPath, outputPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML movie configuration")
	cmd.Flags().StringVar(&outputPath, "out", "", "output MP4 path (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runMux(inputPath, configPath, outputPath string) error {
	cfg, err := loadMovieConfig(configPath)
	if err != nil {
		return err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	imp := vc1.NewImporter()
	summaries, err := imp.Probe(in)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	root, err := mux.Open(out, mux.RootOptions{Fragmented: cfg.Fragmented})
	if err != nil {
		return fmt.Errorf("open movie: %w", err)
	}
	defer root.Close()

	timescale := cfg.Timescale
	if timescale == 0 {
		timescale = 90000
	}
	compatible := make([][4]byte, len(cfg.CompatibleBrands))
	for i, b := range cfg.CompatibleBrands {
		compatible[i] = brandOf(b)
	}
	if err := root.SetMovieParameters(mux.MovieParameters{
		Timescale:           timescale,
		MajorBrand:          brandOf(cfg.MajorBrand),
		Compatible:          compatible,
		QuickTimeCompatible: cfg.QuickTimeCompatible,
	}); err != nil {
		return fmt.Errorf("set movie parameters: %w", err)
	}

	trackID, err := root.CreateTrack([4]byte{'v', 'i', 'd', 'e'})
	if err != nil {
		return fmt.Errorf("create track: %w", err)
	}
	if err := root.SetMediaParameters(trackID, mux.MediaParameters{Timescale: timescale}); err != nil {
		return fmt.Errorf("set media parameters: %w", err)
	}
	summary := summaries[0]
	entryIndex, err := root.AddSampleEntry(trackID, summary)
	if err != nil {
		return fmt.Errorf("add sample entry: %w", err)
	}

	if err := appendVC1Samples(root, trackID, entryIndex, imp); err != nil {
		return err
	}

	if cfg.ChapterFile != "" {
		if cfg.ReferenceChapters {
			if _, err := root.CreateReferenceChapterTrack(trackID, cfg.ChapterFile); err != nil {
				return fmt.Errorf("create reference chapter track: %w", err)
			}
		}
		if err := root.SetTyrantChapter(cfg.ChapterFile, cfg.ChapterBOM); err != nil {
			return fmt.Errorf("set tyrant chapter: %w", err)
		}
	}

	if err := root.FinishMovie(nil); err != nil {
		return fmt.Errorf("finish movie: %w", err)
	}
	log.Info(fmt.Sprintf("wrote %s", outputPath))
	return nil
}

// appendVC1Samples pumps every access unit Probe found through
// AppendSample, pulling DTS/CTS/SampleProperty out of imp's extra
// accessor methods since mux.Importer's bare interface does not
// carry per-sample timing (only NextAccessUnit's raw bytes).
func appendVC1Samples(root *mux.Root, trackID mux.TrackID, entryIndex mux.SampleDescriptionIndex, imp *vc1.Importer) error {
	buf := make([]byte, 0)
	pos := 0
	for {
		size := imp.CurrentAccessUnitSize()
		if size == 0 {
			break
		}
		if cap(buf) < size {
			buf = make([]byte, size)
		}
		n, status, err := imp.NextAccessUnit(0, buf[:size])
		if err != nil {
			return fmt.Errorf("next access unit: %w", err)
		}
		prop := imp.CurrentSampleProperty(pos)
		sample := mux.Sample{
			DTS:   imp.CurrentDTS(pos),
			CTS:   imp.CurrentCTS(pos),
			Data:  append([]byte(nil), buf[:n]...),
			Index: entryIndex,
			Prop:  prop,
		}
		if err := root.AppendSample(trackID, sample); err != nil {
			return fmt.Errorf("append sample: %w", err)
		}
		pos++
		if status == mux.StatusEOF {
			break
		}
	}
	if err := root.FlushPooledSamples(trackID, 0); err != nil {
		return fmt.Errorf("flush pooled samples: %w", err)
	}
	return nil
}
