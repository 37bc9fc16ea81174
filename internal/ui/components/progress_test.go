package components

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestProgressBar_Filled(t *testing.T) {
	tests := []struct {
		percent float64
		want    int
	}{
		{0, 0},
		{0.25, 5},
		{1, 20},
		{1.7, 20},
		{-0.3, 0},
	}
	for _, tt := range tests {
		if got := NewProgressBar("", tt.percent, false, 20).Filled(20); got != tt.want {
			t.Errorf("Filled(%v) = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestProgressBar_View(t *testing.T) {
	view := NewProgressBar("Level 2", 0.5, true, 40).View()
	if !strings.Contains(view, "Level 2") {
		t.Fatalf("missing label: %q", view)
	}
	if !strings.Contains(view, "50%") {
		t.Fatalf("missing percent: %q", view)
	}
	if w := lipgloss.Width(view); w != 40 {
		t.Fatalf("expected width 40, got %d", w)
	}
}
