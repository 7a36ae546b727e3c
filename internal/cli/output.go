// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - structured (json/yaml) and human output for pipdeck commands.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// RESPONSE ENVELOPE
// =============================================================================

// JSONResponse is the envelope every structured command output uses.
type JSONResponse struct {
	Success   bool        `json:"success" yaml:"success"`
	Data      interface{} `json:"data" yaml:"data"`
	Error     *string     `json:"error" yaml:"error"`
	Timestamp string      `json:"timestamp" yaml:"timestamp"`
	Command   string      `json:"command,omitempty" yaml:"command,omitempty"`
}

// NewJSONResponse creates a new successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// =============================================================================
// PRINTER
// =============================================================================

// Printer writes command results in the requested format. Writes are
// serialized, so task monitors may report progress while a command prints.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format string
	Color  bool
	Quiet  bool

	mu sync.Mutex
}

// Structured reports whether output is machine-readable.
func (p *Printer) Structured() bool {
	return p.Format == "json" || p.Format == "yaml"
}

// Emit writes data wrapped in a response envelope.
func (p *Printer) Emit(command string, data interface{}) error {
	return p.write(NewJSONResponse(command, data))
}

// EmitError writes err as an error envelope.
func (p *Printer) EmitError(command string, err error) error {
	return p.write(NewJSONErrorResponse(command, err))
}

func (p *Printer) write(resp *JSONResponse) error {
	switch p.Format {
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return p.print(p.Out, buf.String())
	default:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		text := string(data) + "\n"
		if p.Color {
			text = highlight(text, "json")
		}
		return p.print(p.Out, text)
	}
}

func (p *Printer) print(w io.Writer, s string) error {
	if w == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(w, s)
	return err
}

// Infof writes a human progress line to Err unless quiet.
func (p *Printer) Infof(format string, args ...interface{}) {
	if p.Quiet {
		return
	}
	p.print(p.Err, fmt.Sprintf(format, args...))
}

// Print writes s to Out as is.
func (p *Printer) Print(s string) {
	p.print(p.Out, s)
}

// Println writes a line to Out.
func (p *Printer) Println(s string) {
	p.print(p.Out, s+"\n")
}

// Style renders text with style when color is on.
func (p *Printer) Style(style lipgloss.Style, text string) string {
	if !p.Color {
		return text
	}
	return style.Render(text)
}

// Markdown renders md for the terminal when color is on.
func (p *Printer) Markdown(md string, width int) string {
	if !p.Color {
		return md
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// highlight applies terminal syntax highlighting, falling back to the
// plain text on any error.
func highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// TABLES
// =============================================================================

// Column is one table column. Width 0 means "fit the content".
type Column struct {
	Title string
	Width int
	Right bool
}

// Table renders rows under headers using display-width aware padding.
// The last column is never padded.
func Table(cols []Column, rows [][]string) string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = c.Width
		if widths[i] == 0 {
			widths[i] = util.StringWidth(c.Title)
			for _, r := range rows {
				if i < len(r) && util.StringWidth(r[i]) > widths[i] {
					widths[i] = util.StringWidth(r[i])
				}
			}
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		parts := make([]string, len(cols))
		for i := range cols {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			switch {
			case i == len(cols)-1:
				parts[i] = util.TruncateWidth(cell, widths[i])
			case cols[i].Right:
				parts[i] = util.PadLeft(cell, widths[i])
			default:
				parts[i] = util.PadRight(cell, widths[i])
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteString("\n")
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	line(titles)
	for _, r := range rows {
		line(r)
	}
	return b.String()
}
