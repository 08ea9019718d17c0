// Package webui renders the browser front end of the analyzer.
package webui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

//go:embed templates/*.html
var files embed.FS

type Pages struct {
	tmpl *template.Template
}

func New() (*Pages, error) {
	tmpl, err := template.ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("webui: parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

type FormPage struct {
	Title        string
	Page         string
	Error        string
	CompanyName  string
	WebsiteURL   string
	AnalysisType analysis.Type
	Types        []analysis.Type
	Accept       string
}

type ResultPage struct {
	Title    string
	Page     string
	Result   analysis.Result
	Download string
}

type HistoryPage struct {
	Title   string
	Page    string
	Records []*analysis.Record
}

// Form renders the upload form, optionally prefilled after a rejected submit.
func (p *Pages) Form(w io.Writer, data FormPage) error {
	data.Title, data.Page = "Analyze", "analyze"
	if data.AnalysisType == "" {
		data.AnalysisType = analysis.TypeComprehensive
	}
	data.Types = analysis.Types()
	data.Accept = strings.Join(analysis.SupportedFormats, ",")
	return p.tmpl.ExecuteTemplate(w, "form", data)
}

// Result renders an analysis outcome. download is the report link, empty when
// the report is not served.
func (p *Pages) Result(w io.Writer, res analysis.Result, download string) error {
	data := ResultPage{Title: "Result", Page: "analyze", Result: res}
	if res.Succeeded() {
		data.Download = download
	}
	return p.tmpl.ExecuteTemplate(w, "result", data)
}

func (p *Pages) History(w io.Writer, records []*analysis.Record) error {
	return p.tmpl.ExecuteTemplate(w, "history", HistoryPage{Title: "History", Page: "history", Records: records})
}
