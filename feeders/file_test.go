package feeders

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fileConfig struct {
	AppID   string `yaml:"app_id" toml:"app_id" json:"app_id"`
	DataDir string `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
	Debug   bool   `yaml:"debug" toml:"debug" json:"debug"`
}

type serverSection struct {
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

type keyFeeder interface {
	Feed(target any) error
	FeedKey(key string, target any) error
}

func TestFileFeeders(t *testing.T) {
	tests := []struct {
		name   string
		feeder func(path string) keyFeeder
		file   string
		body   string
	}{
		{
			name:   "yaml",
			feeder: func(p string) keyFeeder { return NewYamlFeeder(p) },
			file:   "config.yaml",
			body:   "app_id: host\ndata_dir: /srv/data\ndebug: true\nserver:\n  addr: \":9000\"\n",
		},
		{
			name:   "toml",
			feeder: func(p string) keyFeeder { return NewTomlFeeder(p) },
			file:   "config.toml",
			body:   "app_id = \"host\"\ndata_dir = \"/srv/data\"\ndebug = true\n\n[server]\naddr = \":9000\"\n",
		},
		{
			name:   "json",
			feeder: func(p string) keyFeeder { return NewJSONFeeder(p) },
			file:   "config.json",
			body:   `{"app_id": "host", "data_dir": "/srv/data", "debug": true, "server": {"addr": ":9000"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feeder := tt.feeder(writeFile(t, tt.file, tt.body))

			var cfg fileConfig
			if err := feeder.Feed(&cfg); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if cfg.AppID != "host" || cfg.DataDir != "/srv/data" || !cfg.Debug {
				t.Errorf("Unexpected config %+v", cfg)
			}

			var server serverSection
			if err := feeder.FeedKey("server", &server); err != nil {
				t.Fatalf("Expected no error from FeedKey, got %v", err)
			}
			if server.Addr != ":9000" {
				t.Errorf("Expected addr ':9000', got '%s'", server.Addr)
			}

			missing := serverSection{Addr: "keep"}
			if err := feeder.FeedKey("absent", &missing); err != nil {
				t.Fatalf("Expected no error for absent key, got %v", err)
			}
			if missing.Addr != "keep" {
				t.Errorf("Expected absent key to leave target untouched, got '%s'", missing.Addr)
			}
		})
	}
}

func TestFileFeeders_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		var cfg fileConfig
		err := NewYamlFeeder(filepath.Join(t.TempDir(), "none.yaml")).Feed(&cfg)
		if !errors.Is(err, ErrFileRead) {
			t.Errorf("Expected ErrFileRead, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		var cfg fileConfig
		err := NewJSONFeeder(writeFile(t, "bad.json", "{")).Feed(&cfg)
		if !errors.Is(err, ErrFileDecode) {
			t.Errorf("Expected ErrFileDecode, got %v", err)
		}
	})

	t.Run("non-pointer target", func(t *testing.T) {
		err := NewTomlFeeder(writeFile(t, "ok.toml", "app_id = \"x\"\n")).Feed(fileConfig{})
		if !errors.Is(err, ErrFeedTargetInvalid) {
			t.Errorf("Expected ErrFeedTargetInvalid, got %v", err)
		}
	})
}
