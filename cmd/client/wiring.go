package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"polyglot/internal/collab"
	"polyglot/internal/config"
	"polyglot/internal/db"
	"polyglot/internal/logger"
	"polyglot/internal/network"
	"polyglot/internal/remote"
	"polyglot/internal/repository"
	"polyglot/internal/service"
	"polyglot/internal/service/ai"
)

// deps are what a session needs from the outside world.
type deps struct {
	languages  []string
	device     string
	translator collab.Translator
	transport  collab.Transport // nil when sync is off
	close      func()
}

func (d deps) options(cfg config.ClientConfig) collab.Options {
	return collab.Options{
		Languages:      d.languages,
		Key:            cfg.SyncKey,
		DeviceID:       d.device,
		Debounce:       cfg.Debounce,
		Grace:          cfg.SyncGrace,
		RequestTimeout: cfg.RequestTimeout,
		Policy: collab.SignificancePolicy{
			MinAppendedChars:  cfg.MinAppendedChars,
			TailSentenceChars: cfg.TailChars,
			Boundaries:        collab.DefaultSignificancePolicy().Boundaries,
		},
		ScrollThreshold: 1, // rows
		Translator:      d.translator,
		Transport:       d.transport,
	}
}

func connect(ctx context.Context, cfg config.ClientConfig) (deps, error) {
	d := deps{
		languages: cfg.Languages,
		device:    opts.device,
		close:     func() {},
	}
	if d.device == "" {
		d.device = uuid.NewString()
	}

	if opts.embedded {
		return embedded(d, cfg)
	}

	translator := remote.NewHTTPTranslator(cfg.ServerURL, cfg.RequestTimeout)
	d.translator = translator
	if !cfg.LanguagesSet {
		lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		langs, err := translator.Languages(lookupCtx)
		cancel()
		if err != nil {
			logger.Warn("server languages unavailable, using defaults", "module", "client", "action", "fetch", "resource", "languages", "result", "failed", "error", err)
		} else if len(langs) >= 2 {
			d.languages = make([]string, 0, len(langs))
			for _, l := range langs {
				d.languages = append(d.languages, l.ID)
			}
		}
	}

	switch cfg.SyncMode {
	case config.SyncModeOff:
	case config.SyncModePoll:
		d.transport = remote.NewPollTransport(cfg.ServerURL, cfg.PollInterval, cfg.RequestTimeout)
	case config.SyncModeEvents:
		d.transport = remote.NewEventTransport(cfg.ServerURL, cfg.RequestTimeout)
	default:
		return deps{}, fmt.Errorf("%w: unknown sync mode %q", collab.ErrConfiguration, cfg.SyncMode)
	}
	return d, nil
}

// embedded runs the server's services in-process against the server's
// database and settings.
func embedded(d deps, cfg config.ClientConfig) (deps, error) {
	serverCfg := config.Load()
	if !cfg.LanguagesSet {
		d.languages = serverCfg.Languages
	}

	conn, err := db.Open(serverCfg.DBPath)
	if err != nil {
		return deps{}, fmt.Errorf("open database: %w", err)
	}
	translations, syncSvc := buildServices(conn, serverCfg, d.languages)

	d.translator = remote.NewLocalTranslator(translations)
	if cfg.SyncMode != config.SyncModeOff {
		d.transport = remote.NewLocalTransport(syncSvc)
	}
	d.close = func() { _ = conn.Close() }
	return d, nil
}

func buildServices(conn *sql.DB, cfg config.Config, languages []string) (service.TranslationService, service.SyncService) {
	limiter := ai.NewRateLimiter(cfg.AI.RateLimit)
	settings := service.NewSettingsService(repository.NewSettingsRepository(conn), cfg.AI, limiter)
	clients := network.NewClientFactory(settings)
	providers := service.NewProviderSource(settings, clients, cfg.ProviderTimeout)

	translations := service.NewTranslationService(languages, repository.NewTranslationCacheRepository(conn), providers, limiter)
	syncSvc := service.NewSyncService(repository.NewSnapshotRepository(conn))
	return translations, syncSvc
}
