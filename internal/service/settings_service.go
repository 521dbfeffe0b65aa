package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"polyglot/internal/config"
	"polyglot/internal/logger"
	"polyglot/internal/repository"
	"polyglot/internal/service/ai"
)

// AISettings holds the AI configuration.
type AISettings struct {
	Provider        string `json:"provider"`
	APIKey          string `json:"apiKey"`
	BaseURL         string `json:"baseUrl"`
	Model           string `json:"model"`
	Thinking        bool   `json:"thinking"`
	ThinkingBudget  int    `json:"thinkingBudget"`
	ReasoningEffort string `json:"reasoningEffort"`
	RateLimit       int    `json:"rateLimit"`
}

// Setting keys
const (
	KeyAIProvider        = "ai.provider"
	KeyAIAPIKey          = "ai.api_key"
	KeyAIBaseURL         = "ai.base_url"
	KeyAIModel           = "ai.model"
	KeyAIThinking        = "ai.thinking"
	KeyAIThinkingBudget  = "ai.thinking_budget"
	KeyAIReasoningEffort = "ai.reasoning_effort"
	KeyAIRateLimit       = "ai.rate_limit"
	KeyNetworkProxyURL   = "network.proxy_url"
)

// SettingsService provides settings management.
type SettingsService interface {
	// GetAISettings returns the AI configuration with masked API keys.
	GetAISettings(ctx context.Context) (*AISettings, error)
	// SetAISettings updates the AI configuration.
	// If apiKey is empty or masked, it keeps the existing key.
	SetAISettings(ctx context.Context, settings *AISettings) error
	// AIConfig returns the unmasked provider configuration, falling back to
	// the environment defaults for anything not stored.
	AIConfig(ctx context.Context) (ai.Config, error)
	// TestAI tests the AI connection with the given configuration.
	TestAI(ctx context.Context, settings *AISettings) (string, error)
	// GetProxyURL returns the configured outbound proxy, or "".
	GetProxyURL(ctx context.Context) string
	// SetProxyURL stores the outbound proxy. Empty clears it.
	SetProxyURL(ctx context.Context, proxyURL string) error
}

type settingsService struct {
	repo     repository.SettingsRepository
	defaults config.AIDefaults
	limiter  *ai.RateLimiter
}

// NewSettingsService creates a new settings service. limiter may be nil;
// when set, stored rate limits are applied to it.
func NewSettingsService(repo repository.SettingsRepository, defaults config.AIDefaults, limiter *ai.RateLimiter) SettingsService {
	return &settingsService{repo: repo, defaults: defaults, limiter: limiter}
}

func (s *settingsService) GetAISettings(ctx context.Context) (*AISettings, error) {
	values, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	cfg := s.merge(values)

	return &AISettings{
		Provider:        cfg.Provider,
		APIKey:          maskAPIKey(cfg.APIKey),
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		Thinking:        cfg.Thinking,
		ThinkingBudget:  cfg.ThinkingBudget,
		ReasoningEffort: cfg.ReasoningEffort,
		RateLimit:       atoi(values[KeyAIRateLimit], s.defaults.RateLimit),
	}, nil
}

func (s *settingsService) SetAISettings(ctx context.Context, settings *AISettings) error {
	if settings == nil {
		return ErrInvalid
	}
	if settings.Provider != "" {
		switch settings.Provider {
		case ai.ProviderOpenAI, ai.ProviderAnthropic, ai.ProviderCompatible, ai.ProviderGemini:
		default:
			return fmt.Errorf("%w: unknown provider %q", ErrInvalid, settings.Provider)
		}
		if err := s.repo.Set(ctx, KeyAIProvider, settings.Provider); err != nil {
			return fmt.Errorf("set provider: %w", err)
		}
	}
	if err := s.setAPIKey(ctx, KeyAIAPIKey, settings.APIKey); err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	if err := s.repo.Set(ctx, KeyAIBaseURL, settings.BaseURL); err != nil {
		return fmt.Errorf("set base url: %w", err)
	}
	if err := s.repo.Set(ctx, KeyAIModel, settings.Model); err != nil {
		return fmt.Errorf("set model: %w", err)
	}
	if err := s.repo.Set(ctx, KeyAIThinking, fmt.Sprintf("%t", settings.Thinking)); err != nil {
		return fmt.Errorf("set thinking: %w", err)
	}
	if err := s.repo.Set(ctx, KeyAIThinkingBudget, fmt.Sprintf("%d", settings.ThinkingBudget)); err != nil {
		return fmt.Errorf("set thinking budget: %w", err)
	}
	if err := s.repo.Set(ctx, KeyAIReasoningEffort, settings.ReasoningEffort); err != nil {
		return fmt.Errorf("set reasoning effort: %w", err)
	}
	if settings.RateLimit > 0 {
		if err := s.repo.Set(ctx, KeyAIRateLimit, fmt.Sprintf("%d", settings.RateLimit)); err != nil {
			return fmt.Errorf("set rate limit: %w", err)
		}
		if s.limiter != nil {
			s.limiter.SetLimit(settings.RateLimit)
		}
	}
	logger.Info("ai settings updated", "module", "service", "action", "update", "resource", "settings", "result", "ok", "provider", settings.Provider, "model", settings.Model)
	return nil
}

func (s *settingsService) AIConfig(ctx context.Context) (ai.Config, error) {
	values, err := s.values(ctx)
	if err != nil {
		return ai.Config{}, fmt.Errorf("get AI settings: %w", err)
	}
	cfg := s.merge(values)
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: API key is not configured", ErrProviderUnavailable)
	}
	if cfg.Model == "" {
		return cfg, fmt.Errorf("%w: model is not configured", ErrProviderUnavailable)
	}
	return cfg, nil
}

func (s *settingsService) TestAI(ctx context.Context, settings *AISettings) (string, error) {
	if settings == nil {
		return "", ErrInvalid
	}
	apiKey := settings.APIKey
	// If apiKey looks like a masked key, use the stored one
	if apiKey == "" || isMaskedKey(apiKey) {
		stored, err := s.AIConfig(ctx)
		if err != nil && stored.APIKey == "" {
			return "", err
		}
		apiKey = stored.APIKey
	}

	p, err := ai.NewProvider(ai.Config{
		Provider:        settings.Provider,
		APIKey:          apiKey,
		BaseURL:         settings.BaseURL,
		Model:           settings.Model,
		Thinking:        settings.Thinking,
		ThinkingBudget:  settings.ThinkingBudget,
		ReasoningEffort: settings.ReasoningEffort,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return p.Test(ctx)
}

func (s *settingsService) GetProxyURL(ctx context.Context) string {
	setting, err := s.repo.Get(ctx, KeyNetworkProxyURL)
	if err != nil {
		logger.Warn("proxy url read failed", "module", "service", "action", "fetch", "resource", "settings", "result", "failed", "error", err)
		return ""
	}
	if setting == nil {
		return ""
	}
	return setting.Value
}

func (s *settingsService) SetProxyURL(ctx context.Context, proxyURL string) error {
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("%w: proxy url", ErrInvalid)
		}
		switch parsed.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return fmt.Errorf("%w: proxy scheme %q", ErrInvalid, parsed.Scheme)
		}
	}
	return s.repo.Set(ctx, KeyNetworkProxyURL, proxyURL)
}

// values batch fetches all ai.* settings in a single query.
func (s *settingsService) values(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.GetByPrefix(ctx, "ai.")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}
	return out, nil
}

func (s *settingsService) merge(values map[string]string) ai.Config {
	cfg := ai.Config{
		Provider:        firstNonEmpty(values[KeyAIProvider], s.defaults.Provider, ai.ProviderGemini),
		APIKey:          firstNonEmpty(values[KeyAIAPIKey], s.defaults.APIKey),
		BaseURL:         firstNonEmpty(values[KeyAIBaseURL], s.defaults.BaseURL),
		Model:           firstNonEmpty(values[KeyAIModel], s.defaults.Model),
		Thinking:        values[KeyAIThinking] == "true",
		ThinkingBudget:  atoi(values[KeyAIThinkingBudget], 10000),
		ReasoningEffort: "",
	}
	// Allow empty string to override the default (for Compatible Budget mode)
	if effort, ok := values[KeyAIReasoningEffort]; ok {
		cfg.ReasoningEffort = effort
	}
	return cfg
}

// setAPIKey sets an API key.
// If the value is empty or looks like a masked key, it keeps the existing key.
func (s *settingsService) setAPIKey(ctx context.Context, key, value string) error {
	if value == "" || isMaskedKey(value) {
		return nil
	}
	return s.repo.Set(ctx, key, value)
}

// maskAPIKey returns a masked version of the API key for display.
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	// Keep a short vendor prefix such as "sk-"
	prefixEnd := 0
	for i, c := range apiKey {
		if c == '-' {
			prefixEnd = i + 1
			break
		}
		if i >= 4 {
			break
		}
	}
	return apiKey[:prefixEnd] + "***" + apiKey[len(apiKey)-3:]
}

func isMaskedKey(key string) bool {
	return key != "" && len(key) < 20 && strings.Contains(key, "***")
}

func atoi(s string, fallback int) int {
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil || v <= 0 {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
