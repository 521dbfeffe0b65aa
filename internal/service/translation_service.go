package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"polyglot/internal/config"
	"polyglot/internal/logger"
	"polyglot/internal/repository"
	"polyglot/internal/service/ai"
)

// TranslationService translates one column's text into every other column.
type TranslationService interface {
	// Languages returns the configured column identifiers in display order.
	Languages() []string
	// Translate returns a translation for every language except source.
	// Blank text yields "" for every configured language.
	Translate(ctx context.Context, text, source string) (map[string]string, error)
	// ClearCache deletes every cached translation.
	ClearCache(ctx context.Context) (int64, error)
}

type translationService struct {
	languages   []string
	cache       repository.TranslationCacheRepository
	providers   ProviderSource
	rateLimiter *ai.RateLimiter
}

// NewTranslationService creates a new translation service.
func NewTranslationService(
	languages []string,
	cache repository.TranslationCacheRepository,
	providers ProviderSource,
	rateLimiter *ai.RateLimiter,
) TranslationService {
	return &translationService{
		languages:   append([]string(nil), languages...),
		cache:       cache,
		providers:   providers,
		rateLimiter: rateLimiter,
	}
}

func (s *translationService) Languages() []string {
	return append([]string(nil), s.languages...)
}

func (s *translationService) Translate(ctx context.Context, text, source string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		out := make(map[string]string, len(s.languages))
		for _, lang := range s.languages {
			out[lang] = ""
		}
		return out, nil
	}
	if !s.known(source) {
		return nil, fmt.Errorf("%w: unknown source language %q", ErrInvalid, source)
	}

	out := make(map[string]string, len(s.languages)-1)
	var missing []ai.Target
	for _, lang := range s.languages {
		if lang == source {
			continue
		}
		cached, err := s.cache.Get(ctx, source, lang, text)
		if err != nil {
			logger.Warn("translation cache read failed", "module", "service", "action", "fetch", "resource", "translation", "result", "failed", "target", lang, "error", err)
		}
		if cached != nil {
			out[lang] = cached.Text
			continue
		}
		missing = append(missing, ai.Target{ID: lang, Name: config.LanguageName(lang)})
	}
	if len(missing) == 0 {
		logger.Debug("translation served from cache", "module", "service", "action", "fetch", "resource", "translation", "result", "ok", "source", source)
		return out, nil
	}

	provider, err := s.providers.Provider(ctx)
	if err != nil {
		logger.Warn("ai provider create failed", "module", "service", "action", "fetch", "resource", "ai", "result", "failed", "error", err)
		return nil, err
	}

	translated, err := s.translateBatch(ctx, provider, source, text, missing)
	if err != nil {
		logger.Warn("batch translation failed, translating per language", "module", "service", "action", "fetch", "resource", "ai", "result", "failed", "provider", provider.Name(), "error", err)
		translated, err = s.translateEach(ctx, provider, source, text, missing)
		if err != nil {
			logger.Error("translation failed", "module", "service", "action", "fetch", "resource", "ai", "result", "failed", "provider", provider.Name(), "source", source, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
		}
	}

	for lang, value := range translated {
		out[lang] = value
		if err := s.cache.Save(ctx, source, lang, text, value); err != nil {
			logger.Warn("translation cache save failed", "module", "service", "action", "save", "resource", "translation", "result", "failed", "target", lang, "error", err)
		}
	}
	logger.Info("translation completed", "module", "service", "action", "fetch", "resource", "ai", "result", "ok", "provider", provider.Name(), "source", source, "targets", len(missing))
	return out, nil
}

func (s *translationService) ClearCache(ctx context.Context) (int64, error) {
	n, err := s.cache.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear translations: %w", err)
	}
	logger.Info("translation cache cleared", "module", "service", "action", "delete", "resource", "translation", "result", "ok", "count", n)
	return n, nil
}

// translateBatch asks for every target in one provider call.
func (s *translationService) translateBatch(ctx context.Context, provider ai.Provider, source, text string, targets []ai.Target) (map[string]string, error) {
	if err := s.rateLimiter.Wait(ctx, source); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	prompt := ai.GetTranslateBatchPrompt(config.LanguageName(source), targets)
	raw, err := provider.Complete(ctx, prompt, ai.WrapInput(text))
	if err != nil {
		return nil, err
	}
	return ai.ParseBatchResponse(raw, targets)
}

// translateEach runs one provider call per target in parallel. Any failure
// fails the whole request.
func (s *translationService) translateEach(ctx context.Context, provider ai.Provider, source, text string, targets []ai.Target) (map[string]string, error) {
	results := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			if err := s.rateLimiter.Wait(gctx, source); err != nil {
				return fmt.Errorf("rate limit: %w", err)
			}
			prompt := ai.GetTranslateTextPrompt(config.LanguageName(source), target.Name)
			raw, err := provider.Complete(gctx, prompt, ai.WrapInput(text))
			if err != nil {
				return fmt.Errorf("translate to %s: %w", target.ID, err)
			}
			results[i] = ai.CleanTranslation(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(targets))
	for i, target := range targets {
		out[target.ID] = results[i]
	}
	return out, nil
}

func (s *translationService) known(lang string) bool {
	for _, l := range s.languages {
		if l == lang {
			return true
		}
	}
	return false
}
