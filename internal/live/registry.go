package live

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all live portal sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig tunes HTTP fetching for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 15
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 2
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
}

// SelectorConfig names the CSS selectors used to lift program records off a
// result page. Only Item and Title are required; everything else is
// best-effort and repaired later by field backfill.
type SelectorConfig struct {
	Item        string `yaml:"item"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link,omitempty"`
	LinkAttr    string `yaml:"link_attr,omitempty"` // default: href
	Description string `yaml:"description,omitempty"`
	Domain      string `yaml:"domain,omitempty"`
	Deadline    string `yaml:"deadline,omitempty"`
	Amount      string `yaml:"amount,omitempty"`
	Location    string `yaml:"location,omitempty"`
}

// SourceConfig defines one searchable funding portal.
type SourceConfig struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	SearchURL  string         `yaml:"search_url"`            // e.g. "https://portal.example/search?q=%s"
	MaxItems   int            `yaml:"max_items,omitempty"`   // per-source cap, default 5
	Location   string         `yaml:"location,omitempty"`    // static location attached to results
	Fetch      FetchConfig    `yaml:"fetch,omitempty"`
	Selectors  SelectorConfig `yaml:"selectors"`
}

// LoadRegistry reads the source registry, preferring LIVE_SOURCES_PATH over
// the embedded default.
func LoadRegistry() (*Registry, error) {
	var data []byte
	var err error

	if path := os.Getenv("LIVE_SOURCES_PATH"); path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sources config %s: %w", path, err)
		}
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded sources config: %w", err)
		}
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse sources config: %w", err)
	}

	for i := range reg.Sources {
		s := &reg.Sources[i]
		if s.ID == "" {
			return nil, fmt.Errorf("source %d has no id", i)
		}
		if s.SearchURL == "" {
			return nil, fmt.Errorf("source %s has no search_url", s.ID)
		}
		if s.Selectors.Item == "" || s.Selectors.Title == "" {
			return nil, fmt.Errorf("source %s is missing item/title selectors", s.ID)
		}
	}

	return &reg, nil
}
