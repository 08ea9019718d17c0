package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FailedPath is returned when neither the report nor its fallback could be written.
const FailedPath = "report_save_failed.txt"

type Writer struct {
	Dir         string
	FallbackDir string
	Log         *slog.Logger
}

func NewWriter(dir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{Dir: dir, FallbackDir: ".", Log: log}
}

// CleanName keeps [A-Za-z0-9 _-], trims trailing whitespace and turns spaces into underscores.
func CleanName(companyName string) string {
	var b strings.Builder
	for _, r := range companyName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	clean := strings.TrimRight(b.String(), " ")
	return strings.ReplaceAll(clean, " ", "_")
}

// FileName is the report file name for a company and timestamp.
func FileName(companyName, timestamp string) string {
	return fmt.Sprintf("%s_analysis_%s.txt", CleanName(companyName), timestamp)
}

// Write saves the report under Dir. It falls back to analysis_<timestamp>.txt
// in FallbackDir and finally returns FailedPath; it never returns an error.
func (w *Writer) Write(content, timestamp, companyName string) string {
	path := filepath.Join(w.Dir, FileName(companyName, timestamp))
	err := os.MkdirAll(w.Dir, 0o755)
	if err == nil {
		var b strings.Builder
		b.WriteString("# Investment Analysis Report\n")
		fmt.Fprintf(&b, "## Company: %s\n", companyName)
		fmt.Fprintf(&b, "## Generated: %s\n\n", timestamp)
		b.WriteString(content)
		err = os.WriteFile(path, []byte(b.String()), 0o644)
	}
	if err == nil {
		w.Log.Info("report saved", "path", path)
		return path
	}
	w.Log.Error("save report failed", "path", path, "error", err)

	fallback := filepath.Join(w.FallbackDir, fmt.Sprintf("analysis_%s.txt", timestamp))
	if err := os.WriteFile(fallback, []byte(content), 0o644); err != nil {
		w.Log.Error("fallback report save failed", "path", fallback, "error", err)
		return FailedPath
	}
	w.Log.Info("report saved to fallback location", "path", fallback)
	return fallback
}

// Resolve maps a bare report name to a path inside Dir. Names carrying any
// directory component are rejected.
func (w *Writer) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	return filepath.Join(w.Dir, name), nil
}

// Served returns the name under which Resolve finds path, and false for
// fallback locations outside Dir.
func (w *Writer) Served(path string) (string, bool) {
	if path == "" || filepath.Clean(filepath.Dir(path)) != filepath.Clean(w.Dir) {
		return "", false
	}
	return filepath.Base(path), true
}
