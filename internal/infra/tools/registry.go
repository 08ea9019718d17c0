package tools

import (
	"log/slog"
	"time"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
)

// Config names tools as they are referenced from agents.yaml.
const (
	DocumentProcessorName = "document_processor"
	WebsiteAuditName      = "website_audit_tool"
	SearchName            = "search_tool"
	WebSearchName         = "web_search_tool"
)

type Options struct {
	SerperAPIKey string
	SerperURL    string
	AuditTimeout time.Duration
	Document     *FileProcessor
}

// Registry builds the tool set keyed by config name. Search tools only
// exist when a Serper key is configured.
func Registry(opts Options, log *slog.Logger) map[string]crew.Tool {
	if log == nil {
		log = slog.Default()
	}
	out := map[string]crew.Tool{}
	if opts.SerperAPIKey != "" {
		client := NewSerperClient(opts.SerperAPIKey, opts.SerperURL)
		out[SearchName] = &SearchTool{Client: client}
		out[WebSearchName] = &WebsiteSearchTool{Client: client}
	} else {
		log.Warn("SERPER_API_KEY not found, search tools not initialized")
	}

	out[WebsiteAuditName] = NewWebsiteAudit(opts.AuditTimeout)
	doc := opts.Document
	if doc == nil {
		doc = NewFileProcessor(false, 0, log)
	}
	out[DocumentProcessorName] = doc

	log.Info("tools initialized", "count", len(out))
	return out
}
