package analysis

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout formats analysis timestamps (YYYYMMDD_HHMMSS).
const TimestampLayout = "20060102_150405"

// Type enum
type Type string

const (
	TypeComprehensive   Type = "comprehensive"
	TypeQuick           Type = "quick"
	TypeInvestorFocused Type = "investor-focused"
)

// Types lists the accepted analysis types in display order.
func Types() []Type {
	return []Type{TypeComprehensive, TypeQuick, TypeInvestorFocused}
}

// ParseType maps user input to a Type; empty input means comprehensive.
func ParseType(s string) (Type, error) {
	v := Type(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return TypeComprehensive, nil
	}
	for _, t := range Types() {
		if v == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown analysis type %q", ErrInvalidInput, s)
}

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// SupportedFormats are the accepted pitch deck extensions.
var SupportedFormats = []string{".pdf", ".pptx", ".docx"}

// Request is built per call and never persisted.
type Request struct {
	CompanyName  string
	FilePath     string
	WebsiteURL   string
	AnalysisType Type
}

// Result is the single outcome of an analysis call.
type Result struct {
	ID              string  `json:"id"`
	Status          Status  `json:"status"`
	Content         string  `json:"content,omitempty"`
	Message         string  `json:"message,omitempty"`
	ErrorType       string  `json:"error_type,omitempty"`
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
	ReportPath      string  `json:"report_path,omitempty"`
	ReportURL       string  `json:"report_url,omitempty"`
	CompanyName     string  `json:"company_name"`
	AnalysisType    Type    `json:"analysis_type,omitempty"`
	FileAnalyzed    string  `json:"file_analyzed"`
	WebsiteURL      string  `json:"website_url,omitempty"`
}

// Succeeded reports whether the result carries a report.
func (r Result) Succeeded() bool { return r.Status == StatusSuccess }

// Record is the history entry kept for every analysis call.
type Record struct {
	ID              string    `json:"id"`
	CompanyName     string    `json:"company_name"`
	AnalysisType    Type      `json:"analysis_type"`
	Status          Status    `json:"status"`
	FileAnalyzed    string    `json:"file_analyzed"`
	WebsiteURL      string    `json:"website_url,omitempty"`
	ReportPath      string    `json:"report_path,omitempty"`
	Message         string    `json:"message,omitempty"`
	ErrorType       string    `json:"error_type,omitempty"`
	Timestamp       string    `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`
	Content         string    `json:"content,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewRecord snapshots a result for the history.
func NewRecord(res Result, createdAt time.Time) *Record {
	return &Record{
		ID:              res.ID,
		CompanyName:     res.CompanyName,
		AnalysisType:    res.AnalysisType,
		Status:          res.Status,
		FileAnalyzed:    res.FileAnalyzed,
		WebsiteURL:      res.WebsiteURL,
		ReportPath:      res.ReportPath,
		Message:         res.Message,
		ErrorType:       res.ErrorType,
		Timestamp:       res.Timestamp,
		DurationSeconds: res.DurationSeconds,
		Content:         res.Content,
		CreatedAt:       createdAt,
	}
}
