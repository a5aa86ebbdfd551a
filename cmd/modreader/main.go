package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"

	"github.com/QEStudios/ModReader"
	"github.com/QEStudios/ModReader/config"
	"github.com/QEStudios/ModReader/transcript"
)

var logger *log.Logger

type options struct {
	configPath string
	outDir     string
	drums      string
	printSeq   string
	full       bool
	allInOne   bool
	interval   int
	clearEmpty bool
	midicsv    bool
	lmms       bool
	dump       bool
}

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "settings file (YAML)")
	pflag.StringVarP(&opts.outDir, "outdir", "o", "", "output directory (default: location from settings)")
	pflag.StringVarP(&opts.drums, "drums", "d", "", `drum letters per instrument, e.g. "1=b,2=s,4=bs"`)
	pflag.StringVar(&opts.printSeq, "printseq", "", "drum letters top to bottom (default: printseq from settings)")
	pflag.BoolVarP(&opts.full, "full", "f", false, "write continuous timelines instead of patterns")
	pflag.BoolVarP(&opts.allInOne, "all-in-one", "a", false, "write all timelines into the general file")
	pflag.IntVarP(&opts.interval, "interval", "i", 32, "events per line in timelines (-1: whole song)")
	pflag.BoolVar(&opts.clearEmpty, "clear-empty", false, "leave out timeline lines without events")
	pflag.BoolVar(&opts.midicsv, "midicsv", false, "convert MIDI files with the midicsv program")
	pflag.BoolVar(&opts.lmms, "lmms", false, `unpack .mmpz projects with "lmms -d"`)
	pflag.BoolVar(&opts.dump, "dump", false, "print the decoded module")
	pflag.Parse()

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			logger.Fatalf("failed to load settings: %v", err)
		}
	}

	startDir, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}
	if dir := config.Expand(cfg.BaseDir); cfg.BaseDir != "" {
		if _, err := os.Stat(dir); err == nil {
			startDir = dir
		}
	}

	path, err := choosePath(startDir, pflag.Args(), cfg)
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	mod, err := modreader.Load(path, cfg, logger, modreader.LoadOptions{ExternalMIDI: opts.midicsv, ExternalLMMS: opts.lmms})
	if err != nil {
		logger.Fatalf("read error: %v", err)
	}
	if opts.dump {
		spew.Fdump(os.Stdout, mod)
	}

	tr, err := transcript.New(mod, path, cfg, logger)
	if err != nil {
		logger.Fatalf("transcription error: %v", err)
	}
	assignments, err := transcript.ParseDrumAssignments(opts.drums)
	if err != nil {
		logger.Fatalf("invalid --drums: %v", err)
	}
	if err := tr.AssignDrums(assignments); err != nil {
		logger.Fatalf("invalid --drums: %v", err)
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = config.Expand(cfg.Location)
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Fatalf("error creating output directory: %v", err)
	}
	base := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	if err := write(tr, base, opts); err != nil {
		logger.Fatalf("error writing output: %v", err)
	}
	for _, w := range tr.Warnings() {
		logger.Printf("warning: %v", w)
	}
}

// write produces the overview file, the drums file and one file per melodic instrument.
func write(tr *transcript.Transcript, base string, opts options) error {
	printOpts := transcript.PrintOptions{Interval: opts.interval, ClearEmpty: opts.clearEmpty}
	tr.PreparePrintInstruments()
	tr.PreparePrintDrums(opts.printSeq)

	general := base + "-general.txt"
	err := writeFile(general, func(w io.Writer) error {
		if err := tr.PrintGeneralData(w, opts.full || opts.allInOne); err != nil {
			return err
		}
		if opts.allInOne {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			return tr.PrintAllInstrumentsFull(w, printOpts)
		}
		return nil
	})
	if err != nil || opts.allInOne {
		return err
	}

	if tr.HasDrums() {
		err := writeFile(base+"-drums.txt", func(w io.Writer) error {
			if opts.full {
				return tr.PrintDrumsFull(w, printOpts)
			}
			return tr.PrintDrums(w)
		})
		if err != nil {
			return err
		}
	}

	seen := map[string]int{}
	for _, inst := range tr.Melodic() {
		name := fileName(inst.Sample.Name, inst.Number)
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s-%d", name, inst.Number)
		}
		seen[name]++
		err := writeFile(base+"-"+name+".txt", func(w io.Writer) error {
			if opts.full {
				return tr.PrintInstrumentFull(w, inst.Number, printOpts)
			}
			return tr.PrintInstrument(w, inst.Number)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Printf("wrote %s", path)
	return f.Close()
}

// fileName makes an instrument name usable in a file name.
func fileName(name string, number int) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return fmt.Sprintf("instrument%d", number)
	}
	return name
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(startDir string, args []string, cfg *config.Config) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		absPath, err := filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath, cfg); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	var exts []string
	for _, e := range cfg.KnownFiles {
		exts = append(exts, strings.TrimPrefix(e, "."))
	}
	path, err := dialog.
		File().
		Title("Open module or project").
		Filter("Music files", exts...).
		SetStartDir(startDir).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	// Check for empty path just in case.
	if path == "" {
		return "", dialog.ErrCancelled
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}
	if err := validatePath(absPath, cfg); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath checks that the file exists and is of a known type.
func validatePath(p string, cfg *config.Config) error {
	if !cfg.IsKnown(p) {
		return fmt.Errorf("unknown file type %q", filepath.Ext(p))
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
