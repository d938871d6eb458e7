package options

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	opts := Default()
	if !opts.Target.Valid() {
		t.Fatalf("Default() target %q is not valid", opts.Target)
	}
	if opts.Workers <= 0 {
		t.Fatalf("Default() workers = %d, want > 0", opts.Workers)
	}
}

func TestLoadDefaultsLongIntSplitFor32BitTargets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mosa.toml")
	if err := os.WriteFile(path, []byte(`target = "x86"`+"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Target != TargetX86 {
		t.Fatalf("Target = %q, want x86", opts.Target)
	}
	if !opts.Passes.LongIntSplit {
		t.Fatalf("expected LongIntSplit forced on for the x86 target")
	}
}

func TestLoadRejectsUnsupportedTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mosa.toml")
	if err := os.WriteFile(path, []byte(`target = "mips"`+"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load to reject an unsupported target")
	}
}

func TestTraceLevelValueFallsBackToOff(t *testing.T) {
	opts := Options{TraceLevel: "not-a-level"}
	if got := opts.TraceLevelValue(); got.String() != "off" {
		t.Fatalf("TraceLevelValue() = %v, want off", got)
	}
}
