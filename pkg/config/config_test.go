package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigHasSaneDefaults(t *testing.T) {
	c := DefaultConfig()
	if c.Table.MaxPhraseLength <= 0 {
		t.Errorf("MaxPhraseLength = %d, want > 0", c.Table.MaxPhraseLength)
	}
	if c.UserDict.HalfLife <= 0 {
		t.Errorf("HalfLife = %d, want > 0", c.UserDict.HalfLife)
	}
	if !c.Script.EnableUserDict {
		t.Error("expected user dict enabled by default")
	}
}

func TestSaveAndLoadConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	original := DefaultConfig()
	original.Table.MaxPhraseLength = 5
	original.Script.Delimiters = "-"

	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Table.MaxPhraseLength != 5 {
		t.Errorf("MaxPhraseLength = %d, want 5", loaded.Table.MaxPhraseLength)
	}
	if loaded.Script.Delimiters != "-" {
		t.Errorf("Delimiters = %q, want %q", loaded.Script.Delimiters, "-")
	}
}

func TestInitConfigCreatesFileWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	c, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if c.Server.MaxLimit != DefaultConfig().Server.MaxLimit {
		t.Errorf("InitConfig returned non-default MaxLimit %d", c.Server.MaxLimit)
	}

	again, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig (reload): %v", err)
	}
	if again.Server.MaxLimit != c.Server.MaxLimit {
		t.Errorf("reload diverged: %d != %d", again.Server.MaxLimit, c.Server.MaxLimit)
	}
}
