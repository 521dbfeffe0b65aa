package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"polyglot/internal/config"
	"polyglot/internal/logger"
	"polyglot/internal/service"
)

type TranslateHandler struct {
	service service.TranslationService
}

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
}

type translateResponse struct {
	Success      bool              `json:"success"`
	Translations map[string]string `json:"translations,omitempty"`
	Error        string            `json:"error,omitempty"`
}

type languageResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewTranslateHandler(service service.TranslationService) *TranslateHandler {
	return &TranslateHandler{service: service}
}

func (h *TranslateHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/translate", h.Translate)
	g.GET("/languages", h.Languages)
}

// Translate returns every other column's translation of the source text.
// @Summary Translate text
// @Description Translate the source column's text into every other configured language. Empty text returns every language as "".
// @Tags translate
// @Accept json
// @Produce json
// @Param request body translateRequest true "Text and source language"
// @Success 200 {object} translateResponse
// @Failure 400 {object} translateResponse
// @Failure 500 {object} translateResponse
// @Router /translate [post]
func (h *TranslateHandler) Translate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, translateResponse{Success: false, Error: "invalid request"})
	}

	translations, err := h.service.Translate(c.Request().Context(), req.Text, req.SourceLanguage)
	if err != nil {
		if errors.Is(err, service.ErrInvalid) {
			return c.JSON(http.StatusBadRequest, translateResponse{Success: false, Error: "invalid request"})
		}
		logger.Error("translate request failed", "module", "handler", "action", "fetch", "resource", "translation", "result", "failed", "source", req.SourceLanguage, "error", err)
		return c.JSON(http.StatusInternalServerError, translateResponse{Success: false, Error: translateFailedMessage})
	}

	return c.JSON(http.StatusOK, translateResponse{Success: true, Translations: translations})
}

// Languages lists the configured columns in display order.
// @Summary List languages
// @Description List the configured language columns with display names
// @Tags translate
// @Produce json
// @Success 200 {array} languageResponse
// @Router /languages [get]
func (h *TranslateHandler) Languages(c echo.Context) error {
	ids := h.service.Languages()
	out := make([]languageResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, languageResponse{ID: id, Name: config.LanguageName(id)})
	}
	return c.JSON(http.StatusOK, out)
}
