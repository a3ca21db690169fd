package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LocationsWatcher keeps locations.yaml applied. It polls the file's
// modification time and hands every valid version to Apply.
type LocationsWatcher struct {
	Path     string
	Interval time.Duration
	Apply    func(ctx context.Context, cfg *LocationsConfig) error
	Logger   zerolog.Logger

	lastMod time.Time
}

// Start applies the current file and then polls in the background until ctx
// is done. An error from the first load or apply is returned.
func (w *LocationsWatcher) Start(ctx context.Context) error {
	if w.Path == "" {
		w.Path = "configs/locations.yaml"
	}
	if w.Interval <= 0 {
		w.Interval = 30 * time.Second
	}

	if err := w.reload(ctx); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

func (w *LocationsWatcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(w.Path)
			if err != nil {
				w.Logger.Debug().Err(err).Str("path", w.Path).Msg("Locations config not readable")
				continue
			}
			if !info.ModTime().After(w.lastMod) {
				continue
			}
			if err := w.reload(ctx); err != nil {
				w.Logger.Warn().Err(err).Str("path", w.Path).Msg("Locations config change not applied")
			}
		}
	}
}

// reload records the file's modification time before loading it, so a
// rejected edit is reported once and not retried until the file changes again.
func (w *LocationsWatcher) reload(ctx context.Context) error {
	info, err := os.Stat(w.Path)
	if err != nil {
		return fmt.Errorf("stat locations config: %w", err)
	}
	w.lastMod = info.ModTime()

	cfg, err := LoadLocationsConfig(w.Path)
	if err != nil {
		return err
	}
	if w.Apply != nil {
		if err := w.Apply(ctx, cfg); err != nil {
			return fmt.Errorf("apply locations config: %w", err)
		}
	}

	w.Logger.Info().Str("path", w.Path).Str("summary", cfg.String()).Msg("Locations config applied")
	return nil
}
