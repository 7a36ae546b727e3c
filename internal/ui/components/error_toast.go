// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

// Toasts are non-blocking notifications stacked in the bottom-right corner.
// They auto-dismiss, so a failed task or an unreachable server never takes
// focus away from the package list.

import (
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastKindStatus ToastKind = iota
	ToastKindError
	ToastKindWarning
	ToastKindSuccess
)

// Auto-dismiss durations. Errors stay longer so they can be read.
const (
	DefaultToastDuration = 4 * time.Second
	WarningToastDuration = 6 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

// Toast is one notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

func newToast(kind ToastKind, message string, d time.Duration) Toast {
	return Toast{
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// NewErrorToast creates an error toast.
func NewErrorToast(message string) Toast {
	return newToast(ToastKindError, message, ErrorToastDuration)
}

// NewWarningToast creates a warning toast.
func NewWarningToast(message string) Toast {
	return newToast(ToastKindWarning, message, WarningToastDuration)
}

// NewStatusToast creates an informational toast.
func NewStatusToast(message string) Toast {
	return newToast(ToastKindStatus, message, DefaultToastDuration)
}

// NewSuccessToast creates a success toast.
func NewSuccessToast(message string) Toast {
	return newToast(ToastKindSuccess, message, DefaultToastDuration)
}

// IsExpired returns true if the toast should be dismissed.
func (t Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// TimeRemaining returns how much time is left before auto-dismiss.
func (t Toast) TimeRemaining() time.Duration {
	remaining := t.Duration - time.Since(t.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// DefaultMaxToasts is the number of toasts visible at once.
const DefaultMaxToasts = 4

// ToastManager holds the visible toasts, newest first.
type ToastManager struct {
	toasts    []Toast
	nextID    int
	maxToasts int
	mu        sync.Mutex
}

// NewToastManager creates a new toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{
		nextID:    1,
		maxToasts: DefaultMaxToasts,
	}
}

// Add adds a toast and returns its id. The oldest toast is dropped when
// the stack is full.
func (m *ToastManager) Add(toast Toast) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	toast.ID = m.nextID
	m.nextID++

	m.toasts = append([]Toast{toast}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return toast.ID
}

// AddError adds an error toast.
func (m *ToastManager) AddError(message string) int {
	return m.Add(NewErrorToast(message))
}

// AddWarning adds a warning toast.
func (m *ToastManager) AddWarning(message string) int {
	return m.Add(NewWarningToast(message))
}

// AddStatus adds an informational toast.
func (m *ToastManager) AddStatus(message string) int {
	return m.Add(NewStatusToast(message))
}

// AddSuccess adds a success toast.
func (m *ToastManager) AddSuccess(message string) int {
	return m.Add(NewSuccessToast(message))
}

// Dismiss removes the newest toast.
func (m *ToastManager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Tick removes expired toasts and returns the remaining ones.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, toast := range m.toasts {
		if !toast.IsExpired() {
			active = append(active, toast)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the current toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// HasToasts returns true if there are any active toasts.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically while toasts are visible.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast.
func RenderToast(toast Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var color lipgloss.AdaptiveColor
	var icon string
	switch toast.Kind {
	case ToastKindError:
		color, icon = styles.Rose, styles.StatusIndicators.Error
	case ToastKindWarning:
		color, icon = styles.Amber, styles.StatusIndicators.Warning
	case ToastKindSuccess:
		color, icon = styles.Emerald, styles.StatusIndicators.Success
	default:
		color, icon = styles.Cyan, styles.StatusIndicators.Info
	}

	content := lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon+" ") +
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(wrapToastText(toast.Message, maxWidth-10))

	hint := "[x] dismiss"
	if secs := int(toast.TimeRemaining().Seconds()); secs > 0 {
		hint += "  " + strconv.Itoa(secs) + "s"
	}
	content += "\n" + lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).Render(hint)

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderToastStack renders toasts stacked vertically, newest at the bottom.
func RenderToastStack(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		rendered = append(rendered, RenderToast(toasts[i], width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}

// wrapToastText word-wraps text to maxWidth columns.
func wrapToastText(text string, maxWidth int) string {
	words := strings.Fields(text)
	if maxWidth <= 0 || len(words) == 0 {
		return text
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(word) <= maxWidth {
			line += " " + word
			continue
		}
		lines = append(lines, line)
		line = word
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
