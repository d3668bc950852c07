// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gogpu/jfa"
)

// exporter receives rendered frames.
type exporter interface {
	Add(f *jfa.Frame) error
	Close() error
}

func newExporter(cfg OutputConfig) (exporter, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	if cfg.Format == "gif" {
		return &gifExporter{cfg: cfg}, nil
	}
	return &imageExporter{cfg: cfg}, nil
}

// scaled returns the frame upscaled by cfg.Scale with nearest-neighbour
// sampling, preserving the cell edges.
func scaled(f *jfa.Frame, scale int) image.Image {
	if scale == 1 {
		return f.Image()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, f.Width*scale, f.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), f, f.Bounds(), draw.Src, nil)
	return dst
}

// imageExporter writes one still image per frame.
type imageExporter struct {
	cfg   OutputConfig
	count int
}

func (e *imageExporter) Add(f *jfa.Frame) error {
	path := filepath.Join(e.cfg.Dir, fmt.Sprintf("frame_%04d.%s", e.count, e.cfg.Format))
	e.count++
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(file, scaled(f, e.cfg.Scale), e.cfg.Format); err != nil {
		_ = file.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return file.Close()
}

func (e *imageExporter) Close() error { return nil }

func encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported format %q", format)
}

// gifExporter collects frames into one animated GIF written on Close.
type gifExporter struct {
	cfg  OutputConfig
	anim gif.GIF
}

func (e *gifExporter) Add(f *jfa.Frame) error {
	img := scaled(f, e.cfg.Scale)
	p := image.NewPaletted(img.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Bounds(), img, image.Point{})
	e.anim.Image = append(e.anim.Image, p)
	e.anim.Delay = append(e.anim.Delay, e.cfg.Delay)
	return nil
}

func (e *gifExporter) Close() error {
	if len(e.anim.Image) == 0 {
		return nil
	}
	path := filepath.Join(e.cfg.Dir, "morph.gif")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(file, &e.anim); err != nil {
		_ = file.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return file.Close()
}
