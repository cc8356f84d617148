package extractor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	raw := `
host_patterns:
  - customcdn.example
image_field_names:
  - heroImage
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	if len(rules.HostPatterns) != 1 || rules.HostPatterns[0] != "customcdn.example" {
		t.Fatalf("host patterns not overridden: %v", rules.HostPatterns)
	}
	if len(rules.ImageFieldNames) != 1 || rules.ImageFieldNames[0] != "heroImage" {
		t.Fatalf("image field names not overridden: %v", rules.ImageFieldNames)
	}
	// untouched lists keep their defaults
	if len(rules.ImageExtensions) == 0 {
		t.Fatalf("image extensions should fall back to defaults")
	}
	if len(rules.MetadataKeys) == 0 {
		t.Fatalf("metadata keys should fall back to defaults")
	}
}

func TestLoadRulesMissingFileReturnsDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if len(rules.ImageExtensions) == 0 {
		t.Fatalf("expected defaults alongside the error")
	}
}
