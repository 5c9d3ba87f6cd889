package main

import (
	"errors"
	"testing"

	"github.com/vovakirdan/nodewar/internal/world"
)

func TestParseBudget(t *testing.T) {
	got, err := parseBudget([]string{"energy=20", "minerals=5", "energy=2.5"})
	if err != nil {
		t.Fatal(err)
	}
	if got[world.ResourceEnergy] != 22.5 || got[world.ResourceMinerals] != 5 {
		t.Errorf("budget = %v", got)
	}

	for _, bad := range []string{"energy", "=3", "gold=1", "energy=lots"} {
		if _, err := parseBudget([]string{bad}); !errors.Is(err, errBadBudget) {
			t.Errorf("parseBudget(%q) err = %v", bad, err)
		}
	}
}

func TestPathOptions(t *testing.T) {
	tests := []struct {
		cost, heuristic string
		wantErr         bool
	}{
		{"travel", "straight", false},
		{"", "", false},
		{"distance", "none", false},
		{"travel", "manhattan", false},
		{"fastest", "straight", true},
		{"travel", "psychic", true},
	}
	for _, tt := range tests {
		_, err := pathOptions(tt.cost, tt.heuristic, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("pathOptions(%q, %q) err = %v", tt.cost, tt.heuristic, err)
		}
	}
}

func TestPortOf(t *testing.T) {
	if got := portOf(":23235"); got != "23235" {
		t.Errorf("portOf = %q", got)
	}
	if got := portOf("0.0.0.0:2222"); got != "2222" {
		t.Errorf("portOf = %q", got)
	}
}
