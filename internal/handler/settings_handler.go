package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"polyglot/internal/network"
	"polyglot/internal/service"
)

// defaultProxyTestURL is requested when a proxy test names no URL.
const defaultProxyTestURL = "https://www.gstatic.com/generate_204"

type SettingsHandler struct {
	service      service.SettingsService
	translations service.TranslationService
}

// Request/Response types

type aiSettingsRequest struct {
	Provider        string `json:"provider"`
	APIKey          string `json:"apiKey"`
	BaseURL         string `json:"baseUrl"`
	Model           string `json:"model"`
	Thinking        bool   `json:"thinking"`
	ThinkingBudget  int    `json:"thinkingBudget"`
	ReasoningEffort string `json:"reasoningEffort"`
	RateLimit       int    `json:"rateLimit"`
}

func (r aiSettingsRequest) toSettings() *service.AISettings {
	return &service.AISettings{
		Provider:        r.Provider,
		APIKey:          r.APIKey,
		BaseURL:         r.BaseURL,
		Model:           r.Model,
		Thinking:        r.Thinking,
		ThinkingBudget:  r.ThinkingBudget,
		ReasoningEffort: r.ReasoningEffort,
		RateLimit:       r.RateLimit,
	}
}

type testResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type networkSettings struct {
	ProxyURL string `json:"proxyUrl"`
}

type networkTestRequest struct {
	ProxyURL string `json:"proxyUrl"`
	TestURL  string `json:"testUrl"`
}

func NewSettingsHandler(service service.SettingsService, translations service.TranslationService) *SettingsHandler {
	return &SettingsHandler{service: service, translations: translations}
}

func (h *SettingsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/settings/ai", h.GetAISettings)
	g.PUT("/settings/ai", h.UpdateAISettings)
	g.POST("/settings/ai/test", h.TestAI)
	g.GET("/settings/network", h.GetNetworkSettings)
	g.PUT("/settings/network", h.UpdateNetworkSettings)
	g.POST("/settings/network/test", h.TestNetworkProxy)
	g.DELETE("/settings/translation-cache", h.ClearTranslationCache)
}

// GetAISettings returns the AI configuration.
// @Summary Get AI settings
// @Description Get the translation provider configuration with masked API keys
// @Tags settings
// @Produce json
// @Success 200 {object} service.AISettings
// @Failure 500 {object} errorResponse
// @Router /settings/ai [get]
func (h *SettingsHandler) GetAISettings(c echo.Context) error {
	settings, err := h.service.GetAISettings(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get settings"})
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateAISettings updates the AI configuration.
// @Summary Update AI settings
// @Description Update the translation provider configuration. A masked apiKey keeps the stored key.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body aiSettingsRequest true "AI settings"
// @Success 200 {object} service.AISettings
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /settings/ai [put]
func (h *SettingsHandler) UpdateAISettings(c echo.Context) error {
	var req aiSettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	if err := h.service.SetAISettings(c.Request().Context(), req.toSettings()); err != nil {
		return writeServiceError(c, err)
	}

	return h.GetAISettings(c)
}

// TestAI checks that the given provider answers.
// @Summary Test AI connection
// @Tags settings
// @Accept json
// @Produce json
// @Param config body aiSettingsRequest true "AI settings to test"
// @Success 200 {object} testResponse
// @Failure 400 {object} errorResponse
// @Router /settings/ai/test [post]
func (h *SettingsHandler) TestAI(c echo.Context) error {
	var req aiSettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	if req.Provider == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "provider is required"})
	}
	if req.Model == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "model is required"})
	}

	response, err := h.service.TestAI(c.Request().Context(), req.toSettings())
	if err != nil {
		return c.JSON(http.StatusOK, testResponse{Success: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, testResponse{Success: true, Message: response})
}

// @Summary Get network settings
// @Tags settings
// @Produce json
// @Success 200 {object} networkSettings
// @Router /settings/network [get]
func (h *SettingsHandler) GetNetworkSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, networkSettings{ProxyURL: h.service.GetProxyURL(c.Request().Context())})
}

// UpdateNetworkSettings sets the proxy used for provider calls.
// @Summary Update network settings
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body networkSettings true "Proxy URL, empty to disable"
// @Success 200 {object} networkSettings
// @Failure 400 {object} errorResponse
// @Router /settings/network [put]
func (h *SettingsHandler) UpdateNetworkSettings(c echo.Context) error {
	var req networkSettings
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if err := h.service.SetProxyURL(c.Request().Context(), req.ProxyURL); err != nil {
		return writeServiceError(c, err)
	}
	return h.GetNetworkSettings(c)
}

// TestNetworkProxy requests testUrl through proxyUrl.
// @Summary Test network proxy
// @Tags settings
// @Accept json
// @Produce json
// @Param request body networkTestRequest true "Proxy and test URL"
// @Success 200 {object} testResponse
// @Failure 400 {object} errorResponse
// @Router /settings/network/test [post]
func (h *SettingsHandler) TestNetworkProxy(c echo.Context) error {
	var req networkTestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	if req.TestURL == "" {
		req.TestURL = defaultProxyTestURL
	}

	if err := network.CheckProxy(c.Request().Context(), req.ProxyURL, req.TestURL); err != nil {
		return c.JSON(http.StatusOK, testResponse{Success: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, testResponse{Success: true, Message: "proxy reachable"})
}

// ClearTranslationCache deletes every cached translation.
// @Summary Clear translation cache
// @Tags settings
// @Produce json
// @Success 200 {object} deletedCountResponse
// @Failure 500 {object} errorResponse
// @Router /settings/translation-cache [delete]
func (h *SettingsHandler) ClearTranslationCache(c echo.Context) error {
	deleted, err := h.translations.ClearCache(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, deletedCountResponse{Deleted: deleted})
}
