package main

import (
	"testing"

	"github.com/harrison/pfind/internal/cmd"
)

func TestCommandName(t *testing.T) {
	if name := cmd.NewFindCommand().Name(); name != "pfind" {
		t.Errorf("expected command name 'pfind', got %q", name)
	}
}
