package config

import (
	"strings"
	"testing"
)

func TestLoad_ExportsPreserveOrder(t *testing.T) {
	doc := `{
		"script": [
			{"file": "a.o"},
			{"file": "b.bin", "exports": {"FOO": 4, "BAR": 8, "BAZ": 12}}
		]
	}`

	cfg, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Script) != 2 {
		t.Fatalf("got %d entries, want 2", len(cfg.Script))
	}

	exports := cfg.Script[1].Exports
	want := []Export{{Name: "FOO", Addr: 4}, {Name: "BAR", Addr: 8}, {Name: "BAZ", Addr: 12}}
	if len(exports) != len(want) {
		t.Fatalf("got %d exports, want %d", len(exports), len(want))
	}
	for i, w := range want {
		if exports[i] != w {
			t.Errorf("exports[%d] = %+v, want %+v", i, exports[i], w)
		}
	}
}

func TestResolve_CLIOverridesAndPrepends(t *testing.T) {
	out := "config.out"
	cfg := &Config{
		Settings: &Settings{
			Output:     &out,
			SearchDirs: []string{"cfg1", "cfg2"},
		},
	}

	dirs, output, err := Resolve(cfg, []string{"cli1"}, "cli.out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "cli.out" {
		t.Errorf("output = %q, want %q", output, "cli.out")
	}
	wantDirs := []string{"cli1", "cfg1", "cfg2"}
	if len(dirs) != len(wantDirs) {
		t.Fatalf("dirs = %v, want %v", dirs, wantDirs)
	}
	for i, w := range wantDirs {
		if dirs[i] != w {
			t.Errorf("dirs[%d] = %q, want %q", i, dirs[i], w)
		}
	}
}

func TestResolve_NoOutputFails(t *testing.T) {
	cfg := &Config{}
	if _, _, err := Resolve(cfg, nil, ""); err == nil {
		t.Fatal("expected an error when neither CLI nor config supplies an output path")
	}
}
