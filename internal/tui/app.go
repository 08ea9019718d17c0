// Package tui is the terminal front end: a form to start an analysis, a
// spinner while the crew runs, a scrollable report and the session history.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/analysis"
)

// Analyzer is the part of the analysis service the TUI drives.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) analysis.Result
	Recent(ctx context.Context, limit int) ([]*analysis.Record, error)
}

type screen int

const (
	screenForm screen = iota
	screenRunning
	screenResult
	screenHistory
)

const (
	fieldCompany = iota
	fieldFile
	fieldWebsite
	fieldType // selector, not a text input
	fieldCount
)

const historyLimit = 50

type analysisDoneMsg struct {
	result analysis.Result
}

type historyMsg struct {
	records []*analysis.Record
	err     error
}

// App is the bubbletea model.
type App struct {
	svc    Analyzer
	ctx    context.Context
	cancel context.CancelFunc

	screen  screen
	inputs  []textinput.Model
	focus   int
	typeIdx int
	notice  string

	spinner spinner.Model
	report  viewport.Model
	result  *analysis.Result

	history   []*analysis.Record
	cursor    int
	historyVP viewport.Model

	width  int
	height int
}

func NewApp(ctx context.Context, svc Analyzer) *App {
	ctx, cancel := context.WithCancel(ctx)

	labels := []string{"Acme Inc", "path/to/pitch_deck.pdf", "https://example.com (optional)"}
	inputs := make([]textinput.Model, len(labels))
	for i, placeholder := range labels {
		in := textinput.New()
		in.Placeholder = placeholder
		in.Prompt = "> "
		in.CharLimit = 1024
		in.Width = 60
		inputs[i] = in
	}
	inputs[fieldCompany].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusStyle

	return &App{
		svc:       svc,
		ctx:       ctx,
		cancel:    cancel,
		inputs:    inputs,
		spinner:   sp,
		report:    viewport.New(80, 20),
		historyVP: viewport.New(80, 12),
	}
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.cancel()
			return a, tea.Quit
		}

	case analysisDoneMsg:
		res := msg.result
		a.result = &res
		a.screen = screenResult
		a.report.SetContent(renderResult(res))
		a.report.GotoTop()
		return a, nil

	case historyMsg:
		a.screen = screenHistory
		a.history = msg.records
		a.cursor = 0
		if msg.err != nil {
			a.notice = "history unavailable: " + msg.err.Error()
		}
		a.showSelected()
		return a, nil

	case spinner.TickMsg:
		if a.screen != screenRunning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	switch a.screen {
	case screenForm:
		return a.updateForm(msg)
	case screenResult:
		return a.updateResult(msg)
	case screenHistory:
		return a.updateHistory(msg)
	}
	return a, nil
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			a.cancel()
			return a, tea.Quit
		case "ctrl+r":
			return a, a.loadHistory()
		case "tab", "down":
			return a, a.setFocus(a.focus + 1)
		case "shift+tab", "up":
			return a, a.setFocus(a.focus - 1)
		case "left", "right":
			if a.focus == fieldType {
				n := len(analysis.Types())
				if key.String() == "right" {
					a.typeIdx = (a.typeIdx + 1) % n
				} else {
					a.typeIdx = (a.typeIdx + n - 1) % n
				}
				return a, nil
			}
		case "enter":
			if a.focus < fieldType {
				return a, a.setFocus(a.focus + 1)
			}
			return a, a.submit()
		}
	}

	if a.focus >= fieldType {
		return a, nil
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return a, cmd
}

func (a *App) setFocus(i int) tea.Cmd {
	a.focus = (i + fieldCount) % fieldCount
	var cmd tea.Cmd
	for j := range a.inputs {
		if j == a.focus {
			cmd = a.inputs[j].Focus()
			continue
		}
		a.inputs[j].Blur()
	}
	return cmd
}

// request builds the analysis request from the form.
func (a *App) request() analysis.Request {
	return analysis.Request{
		CompanyName:  strings.TrimSpace(a.inputs[fieldCompany].Value()),
		FilePath:     strings.TrimSpace(a.inputs[fieldFile].Value()),
		WebsiteURL:   strings.TrimSpace(a.inputs[fieldWebsite].Value()),
		AnalysisType: analysis.Types()[a.typeIdx],
	}
}

func (a *App) submit() tea.Cmd {
	req := a.request()
	switch {
	case req.CompanyName == "":
		a.notice = "Please enter the company name to proceed with the analysis."
		return a.setFocus(fieldCompany)
	case req.FilePath == "":
		a.notice = "Please enter the path of the pitch deck."
		return a.setFocus(fieldFile)
	}

	a.notice = ""
	a.screen = screenRunning
	svc, ctx := a.svc, a.ctx
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		return analysisDoneMsg{result: svc.Analyze(ctx, req)}
	})
}

func (a *App) loadHistory() tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		records, err := svc.Recent(ctx, historyLimit)
		return historyMsg{records: records, err: err}
	}
}

func (a *App) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			a.cancel()
			return a, tea.Quit
		case "n", "esc":
			a.screen = screenForm
			return a, a.setFocus(fieldCompany)
		case "h":
			return a, a.loadHistory()
		}
	}
	var cmd tea.Cmd
	a.report, cmd = a.report.Update(msg)
	return a, cmd
}

func (a *App) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			a.cancel()
			return a, tea.Quit
		case "esc", "n":
			a.screen = screenForm
			a.notice = ""
			return a, a.setFocus(fieldCompany)
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
				a.showSelected()
			}
			return a, nil
		case "down", "j":
			if a.cursor < len(a.history)-1 {
				a.cursor++
				a.showSelected()
			}
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.historyVP, cmd = a.historyVP.Update(msg)
	return a, cmd
}

func (a *App) showSelected() {
	if a.cursor >= len(a.history) {
		a.historyVP.SetContent("")
		return
	}
	a.historyVP.SetContent(renderRecord(a.history[a.cursor]))
	a.historyVP.GotoTop()
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	for i := range a.inputs {
		a.inputs[i].Width = max(20, w-8)
	}
	a.report.Width = max(20, w-4)
	a.report.Height = max(5, h-8)
	a.historyVP.Width = max(20, w-4)
	a.historyVP.Height = max(5, h/2)
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pitch Deck Analysis Platform"))
	b.WriteString("\n\n")

	switch a.screen {
	case screenForm:
		a.viewForm(&b)
	case screenRunning:
		fmt.Fprintf(&b, "%s Analyzing pitch deck for %s...\n\n", a.spinner.View(), labelStyle.Render(a.request().CompanyName))
		b.WriteString(mutedStyle.Render("ctrl+c cancel"))
	case screenResult:
		b.WriteString(panelStyle.Render(a.report.View()))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("↑/↓ scroll • n new analysis • h history • q quit"))
	case screenHistory:
		a.viewHistory(&b)
	}
	return b.String()
}

func (a *App) viewForm(b *strings.Builder) {
	b.WriteString("Upload your pitch deck and get AI-powered analysis and recommendations.\n\n")
	labels := []string{"Company Name", "Pitch deck path (PDF, PPTX, DOCX)", "Company Website URL (optional)"}
	for i, in := range a.inputs {
		style := labelStyle
		if i == a.focus {
			style = focusStyle
		}
		b.WriteString(style.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}

	style := labelStyle
	if a.focus == fieldType {
		style = focusStyle
	}
	b.WriteString(style.Render("Analysis Type"))
	b.WriteString("\n")
	for i, t := range analysis.Types() {
		if i == a.typeIdx {
			b.WriteString(focusStyle.Render("[" + string(t) + "]"))
		} else {
			b.WriteString(mutedStyle.Render(" " + string(t) + " "))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	if a.notice != "" {
		b.WriteString(warnStyle.Render(a.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(mutedStyle.Render("tab/↑/↓ move • ←/→ type • enter start • ctrl+r history • esc quit"))
}

func (a *App) viewHistory(b *strings.Builder) {
	b.WriteString(labelStyle.Render("Analysis History"))
	b.WriteString("\n\n")
	if a.notice != "" {
		b.WriteString(errorStyle.Render(a.notice))
		b.WriteString("\n")
	}
	if len(a.history) == 0 {
		b.WriteString(mutedStyle.Render("No analysis history available"))
		b.WriteString("\n\n")
	}
	for i, r := range a.history {
		line := fmt.Sprintf("%s  %-24s %-16s %s", r.Timestamp, r.CompanyName, r.AnalysisType, r.Status)
		if i == a.cursor {
			b.WriteString(focusStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(a.history) > 0 {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(a.historyVP.View()))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("↑/↓ select • esc back • q quit"))
}

func renderResult(res analysis.Result) string {
	var b strings.Builder
	if !res.Succeeded() {
		b.WriteString(errorStyle.Render("Analysis failed!"))
		fmt.Fprintf(&b, "\n\nError: %s\nError Type: %s\n", res.Message, res.ErrorType)
		return b.String()
	}
	b.WriteString(successStyle.Render("Analysis completed successfully!"))
	fmt.Fprintf(&b, "\n\nAnalysis Report for %s\n", res.CompanyName)
	fmt.Fprintf(&b, "Generated at: %s • Type: %s • Duration: %.2f seconds\n", res.Timestamp, res.AnalysisType, res.DurationSeconds)
	if res.ReportPath != "" {
		fmt.Fprintf(&b, "Report saved to: %s\n", res.ReportPath)
	}
	b.WriteString("\n")
	b.WriteString(res.Content)
	return b.String()
}

func renderRecord(r *analysis.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\nCompany: %s\nPitch Deck: %s\nStatus: %s\n", r.Timestamp, r.CompanyName, r.FileAnalyzed, r.Status)
	if r.ReportPath != "" {
		fmt.Fprintf(&b, "Report: %s\n", r.ReportPath)
	}
	if r.Message != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.Message)
	}
	if r.Content != "" {
		b.WriteString("\n")
		b.WriteString(r.Content)
	}
	return b.String()
}
