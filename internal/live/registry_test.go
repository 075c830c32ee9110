package live

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistryEmbedded(t *testing.T) {
	t.Setenv("LIVE_SOURCES_PATH", "")

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("embedded registry must load: %v", err)
	}
	if len(reg.Sources) == 0 {
		t.Fatal("embedded registry has no sources")
	}
	for _, s := range reg.Sources {
		if !strings.Contains(s.SearchURL, "%s") {
			t.Errorf("source %s search_url carries no query placeholder: %s", s.ID, s.SearchURL)
		}
	}
}

func TestLoadRegistryFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - id: custom
    name: Custom Portal
    search_url: "https://custom.example/search?q=%s"
    max_items: 3
    selectors:
      item: "div.hit"
      title: "h2"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIVE_SOURCES_PATH", path)

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reg.Sources) != 1 || reg.Sources[0].ID != "custom" {
		t.Fatalf("unexpected registry: %+v", reg.Sources)
	}
	if reg.Sources[0].MaxItems != 3 {
		t.Errorf("expected max_items 3, got %d", reg.Sources[0].MaxItems)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing id",
			content: `sources:
  - name: No ID
    search_url: "https://x.example/?q=%s"
    selectors: {item: "div", title: "h2"}
`,
		},
		{
			name: "missing search_url",
			content: `sources:
  - id: x
    selectors: {item: "div", title: "h2"}
`,
		},
		{
			name: "missing selectors",
			content: `sources:
  - id: x
    search_url: "https://x.example/?q=%s"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sources.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("LIVE_SOURCES_PATH", path)

			if _, err := LoadRegistry(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
