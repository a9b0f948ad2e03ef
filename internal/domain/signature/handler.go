package signature

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/madjik/clinic/internal/platform/flash"
)

// Recorder counts operation outcomes.
type Recorder interface {
	RecordOperation(entity, operation string, err error)
}

type Handler struct {
	svc     *Service
	flashes *flash.Store
	logger  zerolog.Logger
	metrics Recorder
}

func NewHandler(svc *Service, flashes *flash.Store, logger zerolog.Logger, metrics Recorder) *Handler {
	return &Handler{svc: svc, flashes: flashes, logger: logger, metrics: metrics}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/update_signatures", h.UpdateSignatures)
	e.GET("/api/signature", h.GetSignature)
}

func (h *Handler) record(operation string, err error) {
	if h.metrics != nil {
		h.metrics.RecordOperation("signature", operation, err)
	}
}

func (h *Handler) UpdateSignatures(c echo.Context) error {
	info := Info{
		LicNo: c.FormValue("lic_no"),
		PTRNo: c.FormValue("ptr_no"),
		TINNo: c.FormValue("tin_no"),
		S2No:  c.FormValue("s2_no"),
	}

	err := h.svc.Update(c.Request().Context(), info)
	h.record("update", err)
	if err != nil {
		h.logger.Error().Err(err).Str("op", "update_signatures").Msg("signature update failed")
		h.notify(c, flash.CategoryError, "Error updating signature info")
		return c.Redirect(http.StatusFound, "/")
	}

	h.notify(c, flash.CategorySuccess, "Signature info updated successfully")
	return c.Redirect(http.StatusFound, "/")
}

// GetSignature always answers 200; storage failures yield the empty defaults.
func (h *Handler) GetSignature(c echo.Context) error {
	info, err := h.svc.Get(c.Request().Context())
	h.record("get", err)
	if err != nil {
		h.logger.Error().Err(err).Str("op", "api_signature").Msg("signature read failed")
		info = &Info{}
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) notify(c echo.Context, category, message string) {
	if err := h.flashes.Add(c, category, message); err != nil {
		h.logger.Warn().Err(err).Msg("flash notice dropped")
	}
}
