package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/joho/godotenv"

	"ragqa/internal/config"
	"ragqa/internal/corpus"
	"ragqa/internal/domain"
	"ragqa/internal/embedding/hashing"
	"ragqa/internal/embedding/openai"
	"ragqa/internal/embedding/tfidf"
	"ragqa/internal/logging"
	"ragqa/internal/progress"
	"ragqa/internal/store/sqlite"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg         *config.AppConfig
	rows        []domain.CorpusEntry
	encoder     domain.Encoder
	store       *sqlite.Store
	fingerprint string
	verbose     bool
}

func loadConfig(opts *rootOptions) (*config.AppConfig, string, error) {
	_ = godotenv.Load()
	if opts.configPath == "" {
		return config.LoadDefault()
	}
	cfg, err := config.Load(opts.configPath)
	return cfg, opts.configPath, err
}

// openStore opens the snapshot database, or returns nil when caching is off.
func openStore(cfg *config.AppConfig) (*sqlite.Store, error) {
	if cfg.IndexStore.Type != "sqlite" {
		return nil, nil
	}
	return sqlite.Open(cfg.IndexStore.SQLite.Path)
}

// setup loads configuration, the corpus rows and the encoder. console
// receives log output; pass nil to log to the configured file only.
func setup(ctx context.Context, opts *rootOptions, console io.Writer) (*app, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	verbose := cfg.Log.Verbose || opts.verbose
	if err := logging.Init(cfg.Log.File, verbose, console); err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}
	logging.Debugf("config loaded from %s", path)

	rows, err := corpus.LoadCSVFile(cfg.Corpus.Path, corpus.CSVOptions{
		QuestionColumn: cfg.Corpus.QuestionColumn,
		AnswerColumn:   cfg.Corpus.AnswerColumn,
		Limit:          cfg.Corpus.SampleSize,
	})
	if err != nil {
		return nil, err
	}
	logging.Debugf("loaded %d rows from %s", len(rows), cfg.Corpus.Path)

	enc, err := newEncoder(ctx, cfg, rows)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	return &app{
		cfg:         cfg,
		rows:        rows,
		encoder:     enc,
		store:       st,
		fingerprint: corpus.Fingerprint(rows, cfg.Corpus.SampleSize, enc.Name()),
		verbose:     verbose,
	}, nil
}

func newEncoder(ctx context.Context, cfg *config.AppConfig, rows []domain.CorpusEntry) (domain.Encoder, error) {
	switch cfg.Encoder.Type {
	case "hashing":
		h := cfg.Encoder.Hashing
		enc, err := hashing.NewEncoder(hashing.Config{
			Dimension:     h.Dimension,
			NGramMin:      h.NGramMin,
			NGramMax:      h.NGramMax,
			MaxInputRunes: cfg.Encoder.MaxInputRunes,
		})
		if err != nil {
			return nil, err
		}
		return enc, nil
	case "tfidf":
		questions := make([]string, 0, len(rows))
		for _, r := range rows {
			questions = append(questions, r.Question)
		}
		enc, err := tfidf.Fit(questions, cfg.Encoder.MaxInputRunes)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case "openai":
		o := cfg.Encoder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:       o.BaseURL,
			APIKeyEnv:     o.APIKeyEnv,
			Model:         o.Model,
			Timeout:       time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries:    o.MaxRetries,
			MaxInputRunes: cfg.Encoder.MaxInputRunes,
		})
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown encoder: %s", cfg.Encoder.Type)
	}
}

// loadIndex returns the cached snapshot for the current corpus and encoder,
// building and saving a new one when none exists or force is set.
func (a *app) loadIndex(ctx context.Context, force, showProgress bool) (*corpus.Index, error) {
	if a.store != nil && !force {
		ix, snap, err := a.store.LoadIndex(ctx, a.fingerprint)
		switch {
		case err == nil:
			log.Printf("loaded index snapshot %s (%d entries, %s)", snap.ID, snap.Size, snap.Encoder)
			return ix, nil
		case errors.Is(err, sqlite.ErrSnapshotNotFound):
			logging.Debugf("no snapshot for fingerprint %s", a.fingerprint)
		default:
			log.Printf("ignoring unreadable snapshot: %v", err)
		}
	}

	start := time.Now()
	ix, err := corpus.Build(ctx, a.rows, a.encoder, corpus.BuildOptions{
		SampleSize: a.cfg.Corpus.SampleSize,
		BatchSize:  a.cfg.Corpus.BatchSize,
		Workers:    a.cfg.Corpus.Workers,
		Progress:   progress.NewBar(showProgress, "encoding questions"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	log.Printf("built index: %d entries, dimension %d, %s in %s", ix.Len(), ix.Dimension(), a.encoder.Name(), time.Since(start).Round(time.Millisecond))

	if a.store != nil {
		snap, err := a.store.SaveIndex(ctx, a.fingerprint, a.encoder.Name(), ix)
		if err != nil {
			return nil, fmt.Errorf("failed to save index: %w", err)
		}
		logging.Debugf("saved snapshot %s to %s", snap.ID, a.store.Path())
	}
	return ix, nil
}

// quietLogs keeps logging to the configured file only.
func (a *app) quietLogs() error {
	return logging.Init(a.cfg.Log.File, a.verbose, nil)
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
	_ = logging.Close()
}
