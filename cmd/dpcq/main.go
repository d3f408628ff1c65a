// dpcq runs the cultivation game locally: one group, one or more local
// players, backed by sqlite.
// Usage: dpcq [--version] [--plain] [--script <file>]
package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/cli"
	"github.com/nathoo/dpcq/command"
	"github.com/nathoo/dpcq/config"
	"github.com/nathoo/dpcq/engine"
	"github.com/nathoo/dpcq/engine/rng"
	"github.com/nathoo/dpcq/engine/schedule"
	"github.com/nathoo/dpcq/narrate"
	"github.com/nathoo/dpcq/store"
	"github.com/nathoo/dpcq/store/memory"
	"github.com/nathoo/dpcq/store/sqlite"
	"github.com/nathoo/dpcq/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("dpcq %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--script":
			if i+1 >= len(args) {
				config.Exitf("--script requires a file path")
			}
			i++
			scriptFile = args[i]
		default:
			config.Exitf("Usage: dpcq [--version] [--plain] [--script <file>]")
		}
	}
	fullScreen := scriptFile == "" && !plain && isTerminal()

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log, closeLog, err := newLogger(cfg, fullScreen)
	if err != nil {
		config.Exitf("Error opening log: %v", err)
	}
	defer closeLog()

	tables, err := loadCatalog(cfg)
	if err != nil {
		config.Exitf("Error loading catalog: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		config.Exitf("Error opening store: %v", err)
	}
	defer st.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = randomSeed()
	}
	out := &relay{}
	eng := engine.New(tables, st,
		engine.WithRNG(rng.New(seed)),
		engine.WithLogger(log),
		engine.WithNarrator(narrate.Template{}),
		engine.WithNarrationTimeout(cfg.NarrationTimeout),
		engine.WithSink(out.send),
	)
	defer eng.Close()
	log.Info("engine ready", "seed", seed, "group", cfg.Group, "db", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.ResumeAutoTrain(ctx); err != nil {
		log.Warn("could not resume auto-training", "err", err)
	}
	timers := schedule.New(log, schedule.Task{Name: "world", Every: cfg.TickInterval, Run: eng.Tick})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := timers.Run(ctx); err != nil {
			log.Error("scheduler stopped", "err", err)
		}
	}()
	defer wg.Wait()
	defer stop()

	d := command.New(eng)
	switch {
	case scriptFile != "":
		f, err := os.Open(scriptFile)
		if err != nil {
			config.Exitf("Error opening script: %v", err)
		}
		defer f.Close()
		c := cli.New(d, &cfg)
		c.In = f
		c.EchoInput = true
		out.attach(c.Announce)
		c.Run(ctx)

	case !fullScreen:
		c := cli.New(d, &cfg)
		out.attach(c.Announce)
		c.Run(ctx)

	default:
		if err := tui.Run(ctx, tui.New(eng, d, &cfg), out.attach); err != nil {
			log.Error("tui failed", "err", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// relay forwards group broadcasts to whichever front end attaches.
type relay struct {
	mu sync.RWMutex
	to engine.Sink
}

func (r *relay) attach(s engine.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = s
}

func (r *relay) send(groupID, text string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.to != nil {
		r.to(groupID, text)
	}
}

func newLogger(cfg config.Config, fullScreen bool) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, func() { f.Close() }
	case fullScreen:
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()})), closer, nil
}

func loadCatalog(cfg config.Config) (*catalog.Tables, error) {
	if cfg.DataDir == "" {
		return catalog.Default()
	}
	return catalog.Load(os.DirFS(cfg.DataDir))
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Memory() {
		return memory.New(), nil
	}
	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func randomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
