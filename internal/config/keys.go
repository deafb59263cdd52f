package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "data.corpora_dir", typ: kString, env: "SPAMFILTER_DATA_CORPORA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Data.CorporaDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Data.CorporaDir },
	},
	{
		key: "data.index_dir", typ: kString, env: "SPAMFILTER_DATA_INDEX_DIR",
		apply:   func(cfg *Config, v any) { cfg.Data.IndexDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Data.IndexDir },
	},
	{
		key: "data.classes_dir", typ: kString, env: "SPAMFILTER_DATA_CLASSES_DIR",
		apply:   func(cfg *Config, v any) { cfg.Data.ClassesDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Data.ClassesDir },
	},
	{
		key: "data.docs_dir", typ: kString, env: "SPAMFILTER_DATA_DOCS_DIR",
		apply:   func(cfg *Config, v any) { cfg.Data.DocsDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Data.DocsDir },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SPAMFILTER_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "split.test_ratio", typ: kFloat, env: "SPAMFILTER_SPLIT_TEST_RATIO",
		apply:   func(cfg *Config, v any) { cfg.Split.TestRatio = v.(float64) },
		extract: func(cfg Config) any { return cfg.Split.TestRatio },
	},
	{
		key: "cache.max_chunk_size", typ: kInt, env: "SPAMFILTER_CACHE_MAX_CHUNK_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Cache.MaxChunkSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Cache.MaxChunkSize },
	},
	{
		key: "extract.workers", typ: kInt, env: "SPAMFILTER_EXTRACT_WORKERS",
		apply:   func(cfg *Config, v any) { cfg.Extract.Workers = v.(int) },
		extract: func(cfg Config) any { return cfg.Extract.Workers },
	},
	{
		key: "features.batch_size", typ: kInt, env: "SPAMFILTER_FEATURES_BATCH_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Features.BatchSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Features.BatchSize },
	},
	{
		key: "features.workers", typ: kInt, env: "SPAMFILTER_FEATURES_WORKERS",
		apply:   func(cfg *Config, v any) { cfg.Features.Workers = v.(int) },
		extract: func(cfg Config) any { return cfg.Features.Workers },
	},
	{
		key: "language.target", typ: kString, env: "SPAMFILTER_LANGUAGE_TARGET",
		apply:   func(cfg *Config, v any) { cfg.Language.Target = v.(string) },
		extract: func(cfg Config) any { return cfg.Language.Target },
	},
	{
		key: "server.port", typ: kInt, env: "SPAMFILTER_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "SPAMFILTER_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "log.level", typ: kString, env: "SPAMFILTER_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
