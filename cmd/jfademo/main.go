// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command jfademo renders a seed transformation with the jfa engine and
// exports the frames as images or an animated GIF.
//
// Usage:
//
//	jfademo -grid 48 -pattern sort -mode sim -frames 240 -format gif
//	jfademo -config demo.yaml -cpu
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/jfa"
	"github.com/gogpu/jfa/morph"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// realMain runs the command and returns its exit code, so deferred cleanup
// such as closing the log file completes before the process exits.
func realMain(args []string, stdout, stderr io.Writer) int {
	cfg, err := Load(args)
	if err != nil {
		fmt.Fprintf(stderr, "jfademo: failed to load config: %v\n", err)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, closer := newLogger(cfg.Logging, stderr)
	defer closer.Close()
	jfa.SetLogger(logger)
	defer jfa.SetLogger(nil)

	if err := run(ctx, cfg, stdout); err != nil {
		logger.Error("jfademo failed", "err", err)
		return 1
	}
	return 0
}

// stats summarizes a run.
type stats struct {
	frames   int
	dropped  int
	lost     int
	seeds    int
	pixels   int
	elapsed  time.Duration
	strategy jfa.Strategy
	backend  string
}

func parseStrategy(s string) (jfa.Strategy, error) {
	switch s {
	case "auto", "":
		return jfa.StrategyAuto, nil
	case "storage":
		return jfa.StrategyStorage, nil
	case "sampling":
		return jfa.StrategySampling, nil
	}
	return 0, fmt.Errorf("unknown render.strategy %q", s)
}

// motion produces the seed positions of each frame.
type motion interface {
	Next(frame int) ([]jfa.SeedPos, error)
	Switch()
}

// lerpMotion interpolates between sources and targets.
type lerpMotion struct {
	pairs  []morph.Pair
	frames int
	buf    []jfa.SeedPos
}

func (m *lerpMotion) Next(frame int) ([]jfa.SeedPos, error) {
	t := 1.0
	if m.frames > 1 {
		t = float64(frame) / float64(m.frames-1)
	}
	m.buf = morph.Lerp(m.buf, m.pairs, t)
	return m.buf, nil
}

func (m *lerpMotion) Switch() { morph.Reverse(m.pairs) }

// simMotion advances the particle simulation one step per frame.
type simMotion struct {
	sim       *morph.Sim
	positions []jfa.SeedPos
}

func (m *simMotion) Next(frame int) ([]jfa.SeedPos, error) {
	if frame == 0 && m.positions == nil {
		m.positions = m.sim.Start()
		return m.positions, nil
	}
	return m.positions, m.sim.Step(m.positions)
}

func (m *simMotion) Switch() { m.sim.Switch() }

func run(ctx context.Context, cfg *Config, stdout io.Writer) error {
	strategy, err := parseStrategy(cfg.Render.Strategy)
	if err != nil {
		return err
	}
	pairs, err := buildPairs(cfg.Morph, cfg.Render.Size)
	if err != nil {
		return err
	}

	opts := []jfa.Option{jfa.WithStrategy(strategy), jfa.WithWorkers(cfg.Render.Workers)}
	if !cfg.Render.GPU {
		opts = append(opts, jfa.WithSoftwareOnly())
	}
	e, err := jfa.New(cfg.Render.Size, cfg.Render.Size, opts...)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.SetColors(morph.Colors(pairs)); err != nil {
		return err
	}

	var m motion
	switch cfg.Morph.Mode {
	case "sim":
		sim, err := morph.NewSim(pairs, float32(cfg.Render.Size), cfg.Render.Workers)
		if err != nil {
			return err
		}
		defer sim.Close()
		m = &simMotion{sim: sim}
	default:
		m = &lerpMotion{pairs: pairs, frames: cfg.Morph.Frames}
	}

	exp, err := newExporter(cfg.Output)
	if err != nil {
		return err
	}

	st := stats{
		seeds:    len(pairs),
		strategy: e.Strategy(),
		backend:  e.BackendName(),
	}
	passes := 1
	if cfg.Morph.Reverse {
		passes = 2
	}
	start := time.Now()
	for pass := range passes {
		if pass > 0 {
			m.Switch()
		}
		for i := range cfg.Morph.Frames {
			positions, err := m.Next(i)
			if err != nil {
				return err
			}
			frame, err := e.Render(ctx, positions)
			switch {
			case errors.Is(err, jfa.ErrFrameDropped):
				st.dropped++
				continue
			case errors.Is(err, jfa.ErrDeviceLost):
				st.lost++
				jfa.Logger().Warn("jfademo: frame lost", "frame", i, "err", err)
				continue
			case err != nil:
				return err
			}
			st.frames++
			st.pixels += frame.Width * frame.Height
			if i%cfg.Output.Every == 0 {
				if err := exp.Add(frame); err != nil {
					return err
				}
			}
		}
	}
	st.elapsed = time.Since(start)
	if err := exp.Close(); err != nil {
		return err
	}
	printStats(stdout, st)
	return nil
}

func printStats(w io.Writer, st stats) {
	p := message.NewPrinter(language.English)
	fps := 0.0
	if st.elapsed > 0 {
		fps = float64(st.frames) / st.elapsed.Seconds()
	}
	p.Fprintf(w, "strategy %s (%s)\n", st.strategy, st.backend)
	p.Fprintf(w, "%d frames, %d seeds, %d pixels resolved\n", st.frames, st.seeds, st.pixels)
	p.Fprintf(w, "%.1f frames/s, %d dropped, %d lost\n", fps, st.dropped, st.lost)
}
