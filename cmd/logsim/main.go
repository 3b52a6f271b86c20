// Command logsim parses a circuit definition file, simulates it for a number
// of ticks and prints the monitored signals as waveforms.
//
//	logsim -steps 40 circuit.def
//
// With -watch, the file is re-parsed into a fresh network and re-simulated
// every time it changes on disk.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/db47h/logsim"
	"github.com/db47h/logsim/tracedb"
	"github.com/db47h/logsim/tracelog"
)

func main() {
	var (
		steps   = flag.Int("steps", 20, "number of simulation cycles to run")
		csvPath = flag.String("csv", "", "write the monitor trace as CSV to `file`")
		jsPath  = flag.String("jsonl", "", "write the monitor trace as JSON lines to `file`")
		dbPath  = flag.String("db", "", "record the session in the SQLite database at `file`")
		watch   = flag.Bool("watch", false, "re-run whenever the definition file changes")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: logsim [options] <circuit definition file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	path := flag.Arg(0)
	cfg := config{
		steps:   *steps,
		csvPath: *csvPath,
		jsPath:  *jsPath,
		dbPath:  *dbPath,
		log:     log,
	}

	if !*watch {
		if !run(path, cfg) {
			os.Exit(1)
		}
		return
	}

	run(path, cfg)
	if err := watchLoop(path, cfg); err != nil {
		log.Fatal().Err(err).Msg("watch failed")
	}
}

type config struct {
	steps   int
	csvPath string
	jsPath  string
	dbPath  string
	log     zerolog.Logger
}

// run parses the definition file, simulates it and writes the requested
// outputs. It returns false when the file does not parse cleanly.
func run(path string, cfg config) bool {
	log := cfg.log
	src, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Msg("cannot read definition file")
		return false
	}

	net, diags := logsim.Parse(string(src))
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s:%s\n", path, d.Error())
		}
		log.Error().Int("errors", len(diags)).Msg("definition file has errors")
		return false
	}
	log.Debug().
		Int("devices", len(net.Devices())).
		Int("connections", len(net.Connections())).
		Int("monitors", len(net.Monitors())).
		Msg("network built")

	sim, err := logsim.New(net)
	if err != nil {
		log.Error().Err(err).Msg("cannot simulate network")
		return false
	}
	sim.Step(cfg.steps)
	log.Info().Int("ticks", sim.Tick()).Msg("simulation complete")

	if err := sim.Trace().Render(os.Stdout); err != nil {
		log.Error().Err(err).Msg("render trace")
		return false
	}

	if cfg.csvPath != "" {
		if err := writeFile(cfg.csvPath, sim.Trace(), tracelog.WriteCSV); err != nil {
			log.Error().Err(err).Str("file", cfg.csvPath).Msg("csv export failed")
			return false
		}
	}
	if cfg.jsPath != "" {
		if err := writeFile(cfg.jsPath, sim.Trace(), tracelog.WriteJSONL); err != nil {
			log.Error().Err(err).Str("file", cfg.jsPath).Msg("jsonl export failed")
			return false
		}
	}
	if cfg.dbPath != "" {
		store, err := tracedb.Open(cfg.dbPath)
		if err != nil {
			log.Error().Err(err).Msg("open trace database")
			return false
		}
		defer store.Close()
		id, err := store.SaveSession(string(src), sim.Trace())
		if err != nil {
			log.Error().Err(err).Msg("save session")
			return false
		}
		log.Info().Str("session", id).Msg("session recorded")
	}
	return true
}

func writeFile(path string, tr *logsim.Trace, write func(w io.Writer, tr *logsim.Trace) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, tr); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// watchLoop re-runs the simulation on a fresh network every time the
// definition file is written to.
func watchLoop(path string, cfg config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return err
	}
	cfg.log.Info().Str("file", path).Msg("watching for changes")
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				cfg.log.Info().Str("file", ev.Name).Msg("definition changed, rebuilding network")
				run(path, cfg)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.log.Error().Err(err).Msg("watcher error")
		}
	}
}
