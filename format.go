package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"b2go/internal/b2"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Size unit constants for human-readable formatting.
const (
	sizeKB = 1024
	sizeMB = 1024 * 1024
	sizeGB = 1024 * 1024 * 1024
	sizeTB = 1024 * 1024 * 1024 * 1024
)

// formatSize returns a human-readable size string (e.g. "1.2 MB").
func formatSize(bytes int64) string {
	switch {
	case bytes >= sizeTB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(sizeTB))
	case bytes >= sizeGB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeGB))
	case bytes >= sizeMB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeMB))
	case bytes >= sizeKB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(sizeKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTime returns a compact timestamp for display.
func formatTime(t time.Time) string {
	now := time.Now()

	// Same calendar year: show "Jan  2 15:04"
	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	// Different year: show "Jan  2  2006"
	return t.Format("Jan _2  2006")
}

// newProgressPrinter returns a ProgressFunc that renders a single-line
// progress display on stderr, or nil when output is quiet or stderr is
// not a terminal.
func newProgressPrinter(label string) b2.ProgressFunc {
	if flagQuiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}

	done := false

	return func(transferred, total int64) {
		if done {
			return
		}

		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s  %s / %s (%d%%)",
				label, formatSize(transferred), formatSize(total), transferred*100/total)
		} else {
			fmt.Fprintf(os.Stderr, "\r%s  %s", label, formatSize(transferred))
		}

		if total > 0 && transferred >= total {
			fmt.Fprintln(os.Stderr)

			done = true
		}
	}
}
