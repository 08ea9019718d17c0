package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/pitch-analyzer/internal/infra/extract"
)

// FileProcessor describes an uploaded pitch deck. By default it does not
// parse the document; with ExtractText it appends the extracted text.
type FileProcessor struct {
	ExtractText bool
	MaxChars    int
	Log         *slog.Logger
}

func NewFileProcessor(extractText bool, maxChars int, log *slog.Logger) *FileProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &FileProcessor{ExtractText: extractText, MaxChars: maxChars, Log: log}
}

func (p *FileProcessor) Name() string { return "file_processor" }

func (p *FileProcessor) Description() string {
	return "Process and extract content from uploaded files (PDF, PPTX, DOCX)"
}

func (p *FileProcessor) Parameters() map[string]any {
	return objectSchema("file_path", map[string]string{
		"file_path": "Path of the uploaded pitch deck file",
	})
}

func (p *FileProcessor) Call(ctx context.Context, arguments string) string {
	return p.Process(ctx, stringArg(arguments, "file_path"))
}

// Process returns the fixed-format file description, or an error string.
func (p *FileProcessor) Process(ctx context.Context, path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: File not found at %s", path)
		}
		return fmt.Sprintf("Error processing file: %v", err)
	}
	ext := strings.ToLower(filepath.Ext(path))

	var b strings.Builder
	fmt.Fprintf(&b, `FILE PROCESSING RESULTS:
========================
File Path: %s
File Type: %s
File Size: %d bytes
Status: Successfully processed

EXTRACTED CONTENT SUMMARY:
=========================
This is a %s file containing a pitch deck presentation.
The file appears to be properly formatted and readable.

ANALYSIS READY: The file has been processed and is ready for detailed analysis.`,
		path, ext, info.Size(), ext)

	if p.ExtractText {
		text, err := extract.Text(ctx, path)
		switch {
		case err != nil:
			p.Log.Warn("text extraction failed", "path", path, "error", err)
			fmt.Fprintf(&b, "\n\nEXTRACTED TEXT:\n==============\nUnavailable: %v", err)
		case text == "":
			b.WriteString("\n\nEXTRACTED TEXT:\n==============\n(no text layer found)")
		default:
			b.WriteString("\n\nEXTRACTED TEXT:\n==============\n")
			b.WriteString(extract.Truncate(text, p.MaxChars))
		}
	}
	return b.String()
}
