package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndBuildTypeSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.toml")
	contents := `
target = "x86"

[[method]]
symbol = "add"
body = "0200020158"
params = ["i4", "i4"]
result = "i4"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Target != "x86" {
		t.Fatalf("expected target x86, got %q", m.Target)
	}
	if len(m.Methods) != 1 || m.Methods[0].Symbol != "add" {
		t.Fatalf("expected one method named add, got %+v", m.Methods)
	}

	ts, ids, err := BuildTypeSystem(m)
	if err != nil {
		t.Fatalf("build type system: %v", err)
	}
	if _, ok := ids["i4"]; !ok {
		t.Fatalf("expected i4 to be interned")
	}
	if _, ok := ts.Lookup(ids["i4"]); !ok {
		t.Fatalf("expected i4 lookup to succeed")
	}

	body, err := DecodeBody(m.Methods[0].Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 5 {
		t.Fatalf("expected 5 decoded bytes, got %d", len(body))
	}
}

func TestBuildTypeSystemRejectsUnknownPrimitive(t *testing.T) {
	m := &Manifest{Methods: []MethodConfig{{Symbol: "f", Params: []string{"nope"}}}}
	if _, _, err := BuildTypeSystem(m); err == nil {
		t.Fatalf("expected an error for an unknown primitive name")
	}
}
