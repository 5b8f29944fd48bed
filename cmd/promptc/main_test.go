// Package main provides tests for the promptc CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/luminal-labs/promptc/internal/cli"
	"github.com/luminal-labs/promptc/internal/cli/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(out, "promptc") {
		t.Errorf("version output should contain 'promptc', got: %s", out)
	}
}

func TestParseCommandJSON(t *testing.T) {
	out, err := execute(t, "parse", "-o", "json", "fire", "flames")
	if err != nil {
		t.Fatalf("parse command error = %v", err)
	}
	if !strings.Contains(out, `"type": "and"`) {
		t.Errorf("parse output should contain the conjunction tag, got: %s", out)
	}
	if !strings.Contains(out, `"text": "fire flames"`) {
		t.Errorf("adjacent words should fuse into one fragment, got: %s", out)
	}
}

func TestParseCommandRaw(t *testing.T) {
	out, err := execute(t, "parse", "-o", "json", "--raw", "2.0(flames)")
	if err != nil {
		t.Fatalf("parse command error = %v", err)
	}
	if !strings.Contains(out, `"type": "attention"`) {
		t.Errorf("raw output should keep attention scopes, got: %s", out)
	}
}

func TestParseCommandStdin(t *testing.T) {
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("fire\nflames\n"))
	cmd.SetArgs([]string{"parse", "-o", "json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("parse command error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"text": "fire"`) || !strings.Contains(out, `"text": "flames"`) {
		t.Errorf("expected one tree per input line, got: %s", out)
	}
}

func TestParseCommandStructuralError(t *testing.T) {
	_, err := execute(t, "parse", "-o", "json", `("fire", "flames").and(2)`)
	if err == nil {
		t.Fatal("expected error for mismatched conjunction weights")
	}
	if !strings.Contains(err.Error(), "Conjunction") {
		t.Errorf("error should mention the conjunction, got: %v", err)
	}
}

func TestParseCommandCustomBases(t *testing.T) {
	out, err := execute(t, "parse", "-o", "json", "--plus-base", "2.0", "+flames")
	if err != nil {
		t.Fatalf("parse command error = %v", err)
	}
	if !strings.Contains(out, `"weight": 2`) {
		t.Errorf("plus-base flag should change attention weights, got: %s", out)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "parse", "-o", "bogus", "fire")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}
