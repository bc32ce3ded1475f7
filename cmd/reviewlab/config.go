package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/reviewlab/pkg/api"
	"github.com/hazyhaar/reviewlab/pkg/corpus"
	"github.com/hazyhaar/reviewlab/pkg/dataset"
	"github.com/hazyhaar/reviewlab/pkg/session"
	"github.com/hazyhaar/reviewlab/pkg/textclean"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr            string            `yaml:"addr"`
	DatasetPath     string            `yaml:"dataset_path"`
	DatasetEncoding string            `yaml:"dataset_encoding"`
	CorpusDB        string            `yaml:"corpus_db"`
	CorpusURL       string            `yaml:"corpus_url"`
	Offline         bool              `yaml:"offline"`
	LogLevel        string            `yaml:"log_level"`
	Cleaner         textclean.Options `yaml:"cleaner"`
	SessionMax      int               `yaml:"session_max"`
	SessionIdle     time.Duration     `yaml:"session_idle_timeout"`
	RequestTimeout  time.Duration     `yaml:"request_timeout"`
}

func defaultConfig() config {
	return config{
		Addr:           ":8421",
		DatasetPath:    dataset.DefaultPath,
		CorpusDB:       "corpora.db",
		CorpusURL:      corpus.DefaultURL,
		LogLevel:       "info",
		Cleaner:        textclean.DefaultOptions(),
		SessionMax:     session.DefaultMaxSessions,
		SessionIdle:    session.DefaultIdleTimeout,
		RequestTimeout: api.DefaultTimeout,
	}
}

// loadConfig applies the YAML file at path over the defaults. A missing
// file is not an error.
func loadConfig(path string, logger *slog.Logger) config {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	if cfg.Cleaner.MinWordLen < 0 {
		logger.Error("invalid config", "error", "cleaner.min_word_len must be >= 0")
		os.Exit(1)
	}
	if cfg.SessionMax < 0 || cfg.SessionIdle < 0 {
		logger.Error("invalid config", "error", "session_max and session_idle_timeout must be >= 0")
		os.Exit(1)
	}
	return cfg
}

func (c config) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
