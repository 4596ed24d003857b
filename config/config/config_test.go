/*
 * axp264ibox - Configuration file parser test set.
 *
 * Copyright 2024, Richard Cornwell
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	name := filepath.Join(dir, "cpu.cfg")
	if err := os.WriteFile(name, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return name
}

func TestLoadDefaults(t *testing.T) {
	cpu := Defaults()
	if cpu.InflightMax != 128 {
		t.Errorf("InflightMax = %d, want 128", cpu.InflightMax)
	}
	if cpu.IntFreeList != 80-(32+8) {
		t.Errorf("IntFreeList = %d, want %d", cpu.IntFreeList, 80-(32+8))
	}
}

func TestLoadOverrides(t *testing.T) {
	body := "# comment\n\ninflightmax = 64\nmajortype = 1\ntracefile = trace1.txt\ndebugmask = 0x3\n"
	name := writeTemp(t, body)

	cpu := Defaults()
	if err := Load(name, &cpu); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cpu.InflightMax != 64 {
		t.Errorf("InflightMax = %d, want 64", cpu.InflightMax)
	}
	if cpu.MajorType != 1 {
		t.Errorf("MajorType = %d, want 1", cpu.MajorType)
	}
	if cpu.TraceFile != "trace1.txt" {
		t.Errorf("TraceFile = %q, want trace1.txt", cpu.TraceFile)
	}
	if cpu.DebugMask != 3 {
		t.Errorf("DebugMask = %d, want 3", cpu.DebugMask)
	}
}

func TestLoadUnknownSetting(t *testing.T) {
	name := writeTemp(t, "bogus = 1\n")
	cpu := Defaults()
	if err := Load(name, &cpu); err == nil {
		t.Fatal("expected error for unknown setting")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cpu := Defaults()
	if err := Load(filepath.Join(t.TempDir(), "nope.cfg"), &cpu); err == nil {
		t.Fatal("expected error for missing file")
	}
}
