// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

func TestSpinnerStartStop(t *testing.T) {
	s := NewSpinner()
	if s.IsActive() {
		t.Fatal("new spinner should be inactive")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	if cmd := s.Start(); cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !s.IsActive() {
		t.Error("spinner should be active after Start")
	}
	if cmd := s.Start(); cmd != nil {
		t.Error("second Start should not schedule another tick")
	}

	s.Stop()
	if s.IsActive() {
		t.Error("spinner should be inactive after Stop")
	}
}

func TestSpinnerView(t *testing.T) {
	s := NewSpinner()
	s.SetMessage("Reloading")
	s.Start()

	view := s.View()
	if !strings.Contains(view, "Reloading...") {
		t.Errorf("view should contain the message, got %q", view)
	}
	if !strings.Contains(view, "(") {
		t.Errorf("view should contain the timer, got %q", view)
	}

	s.SetShowTimer(false)
	if strings.Contains(s.View(), "(") {
		t.Error("timer should be hidden")
	}
}

func TestSpinnerUpdateIgnoredWhenStopped(t *testing.T) {
	s := NewSpinner()
	_, cmd := s.Update(spinner.TickMsg{Time: time.Now()})
	if cmd != nil {
		t.Error("stopped spinner should not keep ticking")
	}
}

func TestSpinnerGetElapsed(t *testing.T) {
	s := NewSpinner()
	if s.GetElapsed() != 0 {
		t.Error("elapsed should be zero before Start")
	}
	s.Start()
	time.Sleep(5 * time.Millisecond)
	if s.GetElapsed() <= 0 {
		t.Error("elapsed should grow after Start")
	}
}
