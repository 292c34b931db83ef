package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBasicFlags(t *testing.T) {
	fs := NewFlagSet("test")
	var out string
	var run bool
	fs.String(&out, "output", "o", "a.out", "output file", "file")
	fs.Bool(&run, "run", "r", false, "run it")

	if err := fs.Parse([]string{"--output", "prog.bin", "-r", "input.ml"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if out != "prog.bin" || !run {
		t.Errorf("got output=%q run=%v", out, run)
	}
	if diff := cmp.Diff([]string{"input.ml"}, fs.Args()); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestParseEquals(t *testing.T) {
	fs := NewFlagSet("test")
	var emit string
	fs.String(&emit, "emit", "e", "", "stage", "stage")
	if err := fs.Parse([]string{"--emit=ir"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if emit != "ir" {
		t.Errorf("emit = %q, want ir", emit)
	}
}

func TestIntsConsumesRun(t *testing.T) {
	fs := NewFlagSet("test")
	var inputs []int64
	fs.Ints(&inputs, "inputs", "i", "input values", "n...")
	if err := fs.Parse([]string{"--inputs", "3", "7", "42", "prog.ml"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff([]int64{3, 7, 42}, inputs); diff != "" {
		t.Errorf("inputs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"prog.ml"}, fs.Args()); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestIntsRejectsGarbage(t *testing.T) {
	fs := NewFlagSet("test")
	var inputs []int64
	fs.Ints(&inputs, "inputs", "i", "input values", "n...")
	if err := fs.Parse([]string{"--inputs", "abc"}); err == nil {
		t.Error("expected error for non-integer input")
	}
}

func TestGroupFlags(t *testing.T) {
	fs := NewFlagSet("test")
	entries := []FlagGroupEntry{
		{Name: "fold", Prefix: "F", Usage: "fold", Enabled: new(bool), Disabled: new(bool)},
	}
	fs.AddFlagGroup("Features", "toggles", "feature", entries)
	if err := fs.Parse([]string{"-Fno-fold"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !*entries[0].Disabled {
		t.Error("-Fno-fold did not set the disable toggle")
	}
	if *entries[0].Enabled {
		t.Error("-Fno-fold should not set the enable toggle")
	}
}

func TestUnknownFlag(t *testing.T) {
	fs := NewFlagSet("test")
	if err := fs.Parse([]string{"--bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
