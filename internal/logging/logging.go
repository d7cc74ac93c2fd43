package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

var (
	mu      sync.Mutex
	logFile *os.File
	verbose atomic.Bool
)

// Init points the standard logger at console and, when logPath is set, an
// append-only log file. A nil console logs to the file only, which keeps the
// TUI screen clean.
func Init(logPath string, debug bool, console io.Writer) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	verbose.Store(debug)

	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	verbose.Store(false)
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// Verbose reports whether debug output is enabled.
func Verbose() bool { return verbose.Load() }

// Debugf logs only when Init was called with debug enabled.
func Debugf(format string, args ...any) {
	if verbose.Load() {
		log.Printf("debug: "+format, args...)
	}
}
