// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all demo settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Morph   MorphConfig   `yaml:"morph"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds engine settings.
type RenderConfig struct {
	Size     int    `yaml:"size"`     // canvas side in pixels
	Strategy string `yaml:"strategy"` // auto, storage or sampling
	Workers  int    `yaml:"workers"`  // CPU workers, 0 = GOMAXPROCS
	GPU      bool   `yaml:"gpu"`      // use the GPU accelerator when available
}

// MorphConfig holds the transformation settings.
type MorphConfig struct {
	Grid    int    `yaml:"grid"`    // seeds per side
	Pattern string `yaml:"pattern"` // flip, transpose, rotate, shuffle or sort
	Mode    string `yaml:"mode"`    // lerp or sim
	Frames  int    `yaml:"frames"`
	Seed    uint64 `yaml:"seed"`    // shuffle seed
	Reverse bool   `yaml:"reverse"` // play the transformation back afterwards
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png, bmp, tiff or gif
	Scale  int    `yaml:"scale"`  // nearest-neighbour upscale factor
	Every  int    `yaml:"every"`  // export every n-th frame
	Delay  int    `yaml:"delay"`  // GIF frame delay in 1/100 s
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Size:     256,
			Strategy: "auto",
			GPU:      true,
		},
		Morph: MorphConfig{
			Grid:    32,
			Pattern: "flip",
			Mode:    "lerp",
			Frames:  60,
			Seed:    1,
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: "gif",
			Scale:  1,
			Every:  1,
			Delay:  4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration with priority: defaults < file < flags.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("jfademo", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "Path to config file")
		debug      = fs.Bool("debug", false, "Enable debug logging")
		size       = fs.Int("size", 0, "Canvas side in pixels")
		strategy   = fs.String("strategy", "", "Strategy: auto, storage or sampling")
		cpu        = fs.Bool("cpu", false, "Disable the GPU accelerator")
		grid       = fs.Int("grid", 0, "Seeds per side")
		pattern    = fs.String("pattern", "", "Pattern: flip, transpose, rotate, shuffle or sort")
		mode       = fs.String("mode", "", "Motion: lerp or sim")
		frames     = fs.Int("frames", 0, "Number of frames")
		out        = fs.String("out", "", "Output directory")
		format     = fs.String("format", "", "Output format: png, bmp, tiff or gif")
		scale      = fs.Int("scale", 0, "Upscale factor")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := loadFromFile(cfg, *configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", *configPath, err)
		}
	}

	if *debug {
		cfg.Logging.Level = "debug"
	}
	if *size > 0 {
		cfg.Render.Size = *size
	}
	if *strategy != "" {
		cfg.Render.Strategy = *strategy
	}
	if *cpu {
		cfg.Render.GPU = false
	}
	if *grid > 0 {
		cfg.Morph.Grid = *grid
	}
	if *pattern != "" {
		cfg.Morph.Pattern = *pattern
	}
	if *mode != "" {
		cfg.Morph.Mode = *mode
	}
	if *frames > 0 {
		cfg.Morph.Frames = *frames
	}
	if *out != "" {
		cfg.Output.Dir = *out
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *scale > 0 {
		cfg.Output.Scale = *scale
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.Size <= 0 {
		errs = append(errs, fmt.Errorf("render.size must be positive, got %d", c.Render.Size))
	}
	if _, err := parseStrategy(c.Render.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.Morph.Grid <= 0 || c.Morph.Grid > c.Render.Size {
		errs = append(errs, fmt.Errorf("morph.grid must be in [1, %d], got %d", c.Render.Size, c.Morph.Grid))
	}
	if _, ok := patterns[c.Morph.Pattern]; !ok {
		errs = append(errs, fmt.Errorf("unknown morph.pattern %q", c.Morph.Pattern))
	}
	if c.Morph.Mode != "lerp" && c.Morph.Mode != "sim" {
		errs = append(errs, fmt.Errorf("unknown morph.mode %q", c.Morph.Mode))
	}
	if c.Morph.Frames <= 0 {
		errs = append(errs, fmt.Errorf("morph.frames must be positive, got %d", c.Morph.Frames))
	}
	switch c.Output.Format {
	case "png", "bmp", "tiff", "gif":
	default:
		errs = append(errs, fmt.Errorf("unknown output.format %q", c.Output.Format))
	}
	if c.Output.Scale <= 0 || c.Output.Every <= 0 {
		errs = append(errs, fmt.Errorf("output.scale and output.every must be positive"))
	}
	return errors.Join(errs...)
}
