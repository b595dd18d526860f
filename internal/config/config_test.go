package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AnomalyThreshold != 50000 || !c.StrictLabels || c.TestRatio != 0.2 || c.Seed != 42 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.TableName != "cleaned_data" || c.TargetColumn != "insuranceclaim" || c.DBDriver != "sqlite3" {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("anomaly_threshold: 60000\ntable_name: claims\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLAIMVISION_ANOMALY_THRESHOLD", "70000")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AnomalyThreshold != 70000 {
		t.Fatalf("threshold = %v, want env value", c.AnomalyThreshold)
	}
	if c.TableName != "claims" {
		t.Fatalf("table = %q, want file value", c.TableName)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Set("strict_labels", "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("trees", "25"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.StrictLabels || back.Trees != 25 {
		t.Fatalf("reloaded = %+v", back)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	c := &Global{LogFormat: "console", TestRatio: 0.2, Trees: 1, TargetColumn: "insuranceclaim"}
	cases := map[string]string{
		"nope":       "1",
		"trees":      "many",
		"test_ratio": "1.5",
		"log_format": "xml",
	}
	for k, v := range cases {
		if err := c.Set(k, v); err == nil {
			t.Errorf("Set(%q, %q) should fail", k, v)
		}
		c = &Global{LogFormat: "console", TestRatio: 0.2, Trees: 1, TargetColumn: "insuranceclaim"}
	}
}
