package main

import (
	"testing"

	"github.com/harrison/pfind/internal/cmd"
)

func TestCommandName(t *testing.T) {
	if name := cmd.NewSortedCommand().Name(); name != "spfind" {
		t.Errorf("expected command name 'spfind', got %q", name)
	}
}
