package main

import (
	"testing"

	"github.com/pthm-cable/riskroute/grid"
)

func TestPositionOr(t *testing.T) {
	tests := []struct {
		in      string
		want    grid.Position
		wantErr bool
	}{
		{"", grid.Pos(9, 9), false},
		{"3,4", grid.Pos(3, 4), false},
		{" 7 , 0 ", grid.Pos(7, 0), false},
		{"3", grid.Position{}, true},
		{"a,1", grid.Position{}, true},
		{"1,2,3", grid.Position{}, true},
	}
	for _, tt := range tests {
		got, err := positionOr(tt.in, grid.Pos(9, 9))
		if (err != nil) != tt.wantErr {
			t.Errorf("positionOr(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("positionOr(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("RISKROUTE_TEST_KEY", "set")
	if got := getEnv("RISKROUTE_TEST_KEY", "def"); got != "set" {
		t.Errorf("Expected set, got %q", got)
	}
	if got := getEnv("RISKROUTE_TEST_MISSING", "def"); got != "def" {
		t.Errorf("Expected def, got %q", got)
	}
}
