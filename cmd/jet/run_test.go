package main

import (
	"context"
	"testing"
)

func TestRun_help(t *testing.T) {
	if code := Run(context.Background(), []string{"--help"}); code != 0 {
		t.Errorf("Run --help: got exit code %d", code)
	}
}

func TestRun_version(t *testing.T) {
	if code := Run(context.Background(), []string{"--version"}); code != 0 {
		t.Errorf("Run --version: got exit code %d", code)
	}
}

func TestRun_unknownFlag(t *testing.T) {
	if code := Run(context.Background(), []string{"--unknown-flag"}); code != 1 {
		t.Errorf("Run --unknown-flag: got exit code %d, want 1", code)
	}
}

func TestRun_cardRoundTrip(t *testing.T) {
	home := t.TempDir()
	if code := Run(context.Background(), []string{"--home", home, "card", "add", "from main"}); code != 0 {
		t.Fatalf("card add: exit %d", code)
	}
	if code := Run(context.Background(), []string{"--home", home, "card", "rm", "1"}); code != 0 {
		t.Fatalf("card rm: exit %d", code)
	}
	if code := Run(context.Background(), []string{"--home", home, "card", "rm", "1"}); code != 1 {
		t.Fatalf("second card rm: exit %d, want 1", code)
	}
}
