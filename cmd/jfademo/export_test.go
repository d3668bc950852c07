// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/jfa"
)

func testFrame(t *testing.T) *jfa.Frame {
	t.Helper()
	e, err := jfa.New(8, 8, jfa.WithSoftwareOnly())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if err := e.SetColors([]jfa.SeedColor{{R: 1, A: 1}, {B: 1, A: 1}}); err != nil {
		t.Fatal(err)
	}
	f, err := e.Render(context.Background(), []jfa.SeedPos{{X: 1, Y: 1}, {X: 6, Y: 6}})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestImageExporter(t *testing.T) {
	decoders := map[string]func(*os.File) (image.Image, error){
		"png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}
	frame := testFrame(t)
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			cfg := OutputConfig{Dir: t.TempDir(), Format: format, Scale: 3, Every: 1}
			exp, err := newExporter(cfg)
			if err != nil {
				t.Fatal(err)
			}
			for range 2 {
				if err := exp.Add(frame); err != nil {
					t.Fatalf("Add: %v", err)
				}
			}
			if err := exp.Close(); err != nil {
				t.Fatal(err)
			}
			file, err := os.Open(filepath.Join(cfg.Dir, "frame_0001."+format))
			if err != nil {
				t.Fatal(err)
			}
			defer file.Close()
			img, err := decode(file)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 24 {
				t.Errorf("bounds = %v, want 24x24", img.Bounds())
			}
			r, _, b, _ := img.At(0, 0).RGBA()
			if r != 0xffff || b != 0 {
				t.Errorf("top-left = %x/%x, want red", r, b)
			}
			r, _, b, _ = img.At(23, 23).RGBA()
			if r != 0 || b != 0xffff {
				t.Errorf("bottom-right = %x/%x, want blue", r, b)
			}
		})
	}
}

func TestGIFExporter(t *testing.T) {
	cfg := OutputConfig{Dir: t.TempDir(), Format: "gif", Scale: 1, Every: 1, Delay: 5}
	exp, err := newExporter(cfg)
	if err != nil {
		t.Fatal(err)
	}
	frame := testFrame(t)
	for range 3 {
		if err := exp.Add(frame); err != nil {
			t.Fatal(err)
		}
	}
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Dir, "morph.gif"))
	if err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gif.DecodeAll: %v", err)
	}
	if len(anim.Image) != 3 || anim.Delay[0] != 5 {
		t.Errorf("%d frames with delay %v", len(anim.Image), anim.Delay)
	}
}

func TestRun(t *testing.T) {
	for _, mode := range []string{"lerp", "sim"} {
		t.Run(mode, func(t *testing.T) {
			cfg := Default()
			cfg.Render.Size = 32
			cfg.Render.GPU = false
			cfg.Render.Workers = 2
			cfg.Morph.Grid = 4
			cfg.Morph.Mode = mode
			cfg.Morph.Frames = 4
			cfg.Morph.Reverse = true
			cfg.Output.Dir = t.TempDir()
			cfg.Output.Format = "png"
			cfg.Output.Every = 2
			if err := cfg.Validate(); err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			if err := run(context.Background(), cfg, &out); err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(out.String(), "8 frames, 16 seeds, 8,192 pixels resolved") {
				t.Errorf("unexpected stats:\n%s", out.String())
			}
			entries, err := os.ReadDir(cfg.Output.Dir)
			if err != nil {
				t.Fatal(err)
			}
			// Frames 0 and 2 of each of the two passes.
			if len(entries) != 4 {
				t.Errorf("%d files exported, want 4", len(entries))
			}
		})
	}
}
