package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// movieConfig is the YAML-loaded movie/track parameter set for the
// mux subcommand: a flat struct with `yaml:"..."` tags loaded straight
// from a file on disk rather than hand-parsed.
type movieConfig struct {
	Timescale           uint32   `yaml:"timescale"`
	MajorBrand          string   `yaml:"majorBrand"`
	CompatibleBrands    []string `yaml:"compatibleBrands"`
	Fragmented          bool     `yaml:"fragmented"`
	QuickTimeCompatible bool     `yaml:"quickTimeCompatible"`
	ChapterFile         string   `yaml:"chapterFile"`
	ChapterBOM          bool     `yaml:"chapterBOM"`
	ReferenceChapters   bool     `yaml:"referenceChapters"`
}

func loadMovieConfig(path string) (movieConfig, error) {
	if path == "" {
		return movieConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return movieConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg movieConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return movieConfig{}, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return cfg, nil
}

func brandOf(s string) [4]byte {
	var b [4]byte
	copy(b[:], s)
	return b
}
