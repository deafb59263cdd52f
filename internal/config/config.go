package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Data     DataConfig
	Storage  StorageConfig
	Split    SplitConfig
	Cache    CacheConfig
	Extract  ExtractConfig
	Features FeaturesConfig
	Language LanguageConfig
	Server   ServerConfig
	Log      LogConfig
}

type DataConfig struct {
	CorporaDir string // raw corpus roots
	IndexDir   string // pre-built enron/ling index files
	ClassesDir string // extracted corpus CSVs and class files
	DocsDir    string // document caches
}

type StorageConfig struct {
	DataDir string
}

type SplitConfig struct {
	TestRatio float64
}

type CacheConfig struct {
	MaxChunkSize int
}

type ExtractConfig struct {
	Workers int
}

type FeaturesConfig struct {
	BatchSize int
	Workers   int
}

type LanguageConfig struct {
	Target string
}

type ServerConfig struct {
	Port  int
	Token string // optional bearer token; environment only
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Data: DataConfig{
			CorporaDir: filepath.Join("data", "raw"),
			IndexDir:   filepath.Join("data", "index"),
			ClassesDir: filepath.Join("data", "corpora"),
			DocsDir:    filepath.Join("data", "docs"),
		},
		Storage:  StorageConfig{DataDir: defaultDataDir()},
		Split:    SplitConfig{TestRatio: 0.2},
		Cache:    CacheConfig{MaxChunkSize: 50000},
		Extract:  ExtractConfig{Workers: 8},
		Features: FeaturesConfig{BatchSize: 2000, Workers: 4},
		Language: LanguageConfig{Target: "en"},
		Server:   ServerConfig{Port: 4100},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads configuration from the YAML file at
// $XDG_CONFIG_HOME/spamfilter/config.yaml, then applies environment
// variable overrides (SPAMFILTER_*). A missing file yields the defaults.
func Load() (Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (Config, error) {
	b, err := newFileBackend(path)
	if err != nil {
		return Config{}, err
	}
	return loadWith(b)
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if !(c.Split.TestRatio > 0 && c.Split.TestRatio < 1) {
		return fmt.Errorf("split.test_ratio must be between 0 and 1, got %v", c.Split.TestRatio)
	}
	for key, n := range map[string]int{
		"cache.max_chunk_size": c.Cache.MaxChunkSize,
		"extract.workers":      c.Extract.Workers,
		"features.batch_size":  c.Features.BatchSize,
		"features.workers":     c.Features.Workers,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, n)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "spamfilter-data"
		}
	}
	return filepath.Join(dir, "spamfilter")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "spamfilter", "config.yaml")
}
