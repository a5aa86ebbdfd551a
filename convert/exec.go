package convert

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/QEStudios/ModReader/tracker"
)

// Exec runs an external conversion program. The result is kept in TempDir under the input's
// base name and reused while it is newer than the input.
type Exec struct {
	Tool string
	// Args builds the argument list from the input and output paths.
	Args func(src, dst string) []string
	// Ext is the extension of the intermediate file.
	Ext string
	// Stdout means the tool writes the result to standard output instead of dst.
	Stdout  bool
	TempDir string
	Logger  *log.Logger
}

// Midicsv converts MIDI files with the midicsv program.
func Midicsv(tempDir string, logger *log.Logger) *Exec {
	return &Exec{
		Tool:    "midicsv",
		Args:    func(src, dst string) []string { return []string{src, dst} },
		Ext:     ".csv",
		TempDir: tempDir,
		Logger:  logger,
	}
}

// LMMS unpacks project files with "lmms -d".
func LMMS(tempDir string, logger *log.Logger) *Exec {
	return &Exec{
		Tool:    "lmms",
		Args:    func(src, _ string) []string { return []string{"-d", src} },
		Ext:     ".mmp",
		Stdout:  true,
		TempDir: tempDir,
		Logger:  logger,
	}
}

// Target returns the intermediate file name for src.
func (e *Exec) Target(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dir := e.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, base+e.Ext)
}

func (e *Exec) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

func (e *Exec) Convert(src string) ([]byte, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, tracker.ExternalTool(err, e.Tool)
	}
	dst := e.Target(src)
	if out, err := os.Stat(dst); err == nil && !out.ModTime().Before(info.ModTime()) {
		e.logger().Printf("using cached %s", dst)
		return e.read(dst)
	}

	path, err := exec.LookPath(e.Tool)
	if err != nil {
		return nil, tracker.ExternalTool(err, e.Tool)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, tracker.ExternalTool(err, e.Tool)
	}
	cmd := exec.Command(path, e.Args(src, dst)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if e.Stdout {
		f, err := os.Create(dst)
		if err != nil {
			return nil, tracker.ExternalTool(err, e.Tool)
		}
		cmd.Stdout = f
		err = cmd.Run()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
			return nil, tracker.ExternalTool(fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())), e.Tool)
		}
	} else if err := cmd.Run(); err != nil {
		return nil, tracker.ExternalTool(fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())), e.Tool)
	}
	e.logger().Printf("converted %s to %s with %s", src, dst, e.Tool)
	return e.read(dst)
}

func (e *Exec) read(dst string) ([]byte, error) {
	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, tracker.ExternalTool(err, e.Tool)
	}
	return data, nil
}
