package grading

import (
	"fmt"
	"log/slog"
	"time"
)

const defaultWorkers = 4

// Config is the grading configuration threaded explicitly into the
// engine at construction. It is read once per engine, never from ambient
// process state, so submissions graded under different configurations
// stay independent.
type Config struct {
	Mode           Mode
	Workers        int
	RequestTimeout time.Duration
	RetryBackoff   time.Duration
}

// NewSelector builds the engine for one configuration. Modes other than
// mock require a bound provider client; constructing one without is a
// configuration error, mirroring the rule that an LLM mode without
// credentials must fail at startup rather than at grading time.
func NewSelector(cfg Config, client ProviderClient, logger *slog.Logger) (*Selector, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	s := &Selector{
		mode:       cfg.Mode,
		exact:      NewExactMatchScorer(),
		similarity: NewSimilarityScorer(),
		workers:    workers,
		logger:     logger,
	}

	if cfg.Mode != ModeMock {
		if client == nil {
			return nil, fmt.Errorf("%w: mode %q has no provider client", ErrMissingAPIKey, cfg.Mode)
		}
		s.llm = NewLLMScorer(client, cfg.RequestTimeout, cfg.RetryBackoff, logger)
	}

	return s, nil
}
