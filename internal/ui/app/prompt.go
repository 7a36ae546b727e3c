// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
)

// =============================================================================
// TEXT PROMPT
// =============================================================================

type promptKind int

const (
	promptInstall promptKind = iota
	promptVersion
	promptFile
)

// prompt is a one-line modal asking for an install spec, a version, or a
// file path.
type prompt struct {
	kind  promptKind
	title string
	key   string // package the prompt applies to, for promptVersion
	input textinput.Model
}

func newPrompt(kind promptKind, key, current string) *prompt {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Width = 48

	p := &prompt{kind: kind, key: key, input: ti}
	switch kind {
	case promptInstall:
		p.title = "Install package"
		ti.Placeholder = "name or spec, e.g. requests>=2.31"
	case promptVersion:
		p.title = fmt.Sprintf("Switch %s (now %s) to version", key, current)
		ti.Placeholder = current
	case promptFile:
		p.title = "Install from file (.whl or requirements)"
		ti.Placeholder = "path/to/file"
	}
	ti.Focus()
	p.input = ti
	return p
}

// Update forwards msg to the text input.
func (p *prompt) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// Action builds the action for the entered value. ok is false when the
// value is empty.
func (p *prompt) Action() (reconcile.Action, bool) {
	v := strings.TrimSpace(p.input.Value())
	if v == "" {
		return reconcile.Action{}, false
	}
	switch p.kind {
	case promptVersion:
		return reconcile.SwitchVersion(p.key, v), true
	case promptFile:
		return fileAction(v), true
	default:
		return reconcile.Install(v), true
	}
}

// fileAction picks wheel or requirements installation by extension.
func fileAction(path string) reconcile.Action {
	if strings.EqualFold(filepath.Ext(path), ".whl") {
		return reconcile.InstallWheel(path)
	}
	return reconcile.InstallRequirements(path)
}

// View renders the prompt box.
func (p *prompt) View(theme *styles.Theme, width int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.PromptTitle.Render(p.title),
		p.input.View(),
		theme.DimStyle.Render("Enter to submit, Esc to cancel"),
	)
	return boxed(theme, body, width)
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// confirmation asks before a destructive action is submitted.
type confirmation struct {
	action   reconcile.Action
	question string
}

func newConfirmation(a reconcile.Action) *confirmation {
	var q string
	targets := a.Targets()
	switch {
	case len(targets) == 1:
		q = fmt.Sprintf("%s %s?", a.Kind, targets[0])
	case len(targets) > 1:
		q = fmt.Sprintf("%s %d packages (%s)?", a.Kind, len(targets), strings.Join(targets, ", "))
	default:
		q = fmt.Sprintf("Run %s?", a.Kind)
	}
	return &confirmation{action: a, question: q}
}

// View renders the confirmation box.
func (c *confirmation) View(theme *styles.Theme, width int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.WarningStyle.Render(c.question),
		theme.DimStyle.Render("y to confirm, n or Esc to cancel"),
	)
	return boxed(theme, body, width)
}

func boxed(theme *styles.Theme, body string, width int) string {
	w := width - 4
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return theme.PromptBox.Width(w).Render(body)
}
