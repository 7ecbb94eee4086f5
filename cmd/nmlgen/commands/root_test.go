package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDefines(t *testing.T) {
	got, err := parseDefines([]string{"max_layers=5", " name_len = 16.0 "})
	if err != nil {
		t.Fatalf("parseDefines failed: %v", err)
	}
	want := map[string]float64{"max_layers": 5, "name_len": 16}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}

	if got, err := parseDefines(nil); err != nil || got != nil {
		t.Errorf("empty input: got %v, %v", got, err)
	}

	for _, entry := range []string{"max_layers", "=5", "max_layers=five"} {
		if _, err := parseDefines([]string{entry}); err == nil {
			t.Errorf("parseDefines(%q) accepted", entry)
		}
	}
}

func TestDumpCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "run.yml")
	if err := os.WriteFile(schemaPath, []byte(`
type: object
x-fortran-namelist: run
properties:
  count:
    type: integer
`), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	cfgPath := filepath.Join(dir, "nml-config.toml")
	if err := os.WriteFile(cfgPath, []byte("[kinds]\nmodule = \"mo_kind\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", cfgPath, "dump", "run.yml"})
	if err := root.Execute(); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	for _, fragment := range []string{`"block": "run"`, `"name": "count"`} {
		if !strings.Contains(out.String(), fragment) {
			t.Errorf("dump output is missing %q:\n%s", fragment, out.String())
		}
	}
}

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"method='MCMC'", "count = 10"})
	if err != nil {
		t.Fatalf("parseSets failed: %v", err)
	}
	want := map[string]string{"method": "'MCMC'", "count": "10"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}

	for _, entry := range []string{"method", "=1"} {
		if _, err := parseSets([]string{entry}); err == nil {
			t.Errorf("parseSets(%q) accepted", entry)
		}
	}
}
