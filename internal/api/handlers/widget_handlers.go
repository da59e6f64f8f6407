package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stack-service/backoffice/internal/infrastructure/config"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

// WidgetOptions is the options blob handed to a market-data embed script
type WidgetOptions struct {
	Name    string   `json:"name"`
	Script  string   `json:"script"`
	Symbols []string `json:"symbols"`
	Width   string   `json:"width"`
	Height  string   `json:"height"`
	Theme   string   `json:"colorTheme"`
	Locale  string   `json:"locale"`
}

// WidgetHandlers serves market-data widget configuration
type WidgetHandlers struct {
	config config.WidgetsConfig
	logger *logger.Logger
}

func NewWidgetHandlers(cfg config.WidgetsConfig, logger *logger.Logger) *WidgetHandlers {
	return &WidgetHandlers{config: cfg, logger: logger}
}

// Get returns the options for one widget
// @Summary Widget options
// @Tags widgets
// @Produce json
// @Param name path string true "Widget name"
// @Success 200 {object} WidgetOptions
// @Failure 404 {object} entities.ErrorResponse
// @Router /api/v1/widgets/{name} [get]
func (h *WidgetHandlers) Get(c *gin.Context) {
	name := c.Param("name")
	widget, ok := h.config.Widgets[name]
	if !ok {
		respondError(c, h.logger, apperrors.NotFound("widget"))
		return
	}

	theme := widget.Theme
	if theme == "" {
		theme = h.config.Theme
	}
	symbols := widget.Symbols
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, WidgetOptions{
		Name:    name,
		Script:  widget.Script,
		Symbols: symbols,
		Width:   widget.Width,
		Height:  widget.Height,
		Theme:   theme,
		Locale:  h.config.Locale,
	})
}
