package patient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/madjik/clinic/internal/domain/signature"
	"github.com/madjik/clinic/internal/platform/db"
	"github.com/madjik/clinic/internal/platform/flash"
	"github.com/madjik/clinic/pkg/pagination"
)

// SignatureReader supplies the credential block shown on the views.
type SignatureReader interface {
	Get(ctx context.Context) (*signature.Info, error)
}

// Recorder counts operation outcomes.
type Recorder interface {
	RecordOperation(entity, operation string, err error)
}

// IndexView is the data behind index.html.
type IndexView struct {
	Patients  []*Summary
	Search    string
	Signature signature.Info
	Notices   []flash.Notice
}

// DetailView is the data behind patient_details.html.
type DetailView struct {
	Patient   Patient
	Visits    []*VisitRecord
	History   []*HistoryNote
	Signature signature.Info
	Notices   []flash.Notice
}

type Handler struct {
	svc        *Service
	signatures SignatureReader
	flashes    *flash.Store
	logger     zerolog.Logger
	metrics    Recorder
}

func NewHandler(svc *Service, signatures SignatureReader, flashes *flash.Store, logger zerolog.Logger, metrics Recorder) *Handler {
	return &Handler{svc: svc, signatures: signatures, flashes: flashes, logger: logger, metrics: metrics}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// HTML views and form posts
	e.GET("/", h.Index)
	e.POST("/add", h.AddPatient)
	e.POST("/edit/:patient_id", h.EditPatient)
	e.POST("/delete/:patient_id", h.DeletePatient)
	e.GET("/patient/:patient_id", h.ViewPatient)
	e.POST("/add_record/:patient_id", h.AddRecord)
	e.POST("/edit_record/:visit_id", h.EditRecord)
	e.POST("/delete_record/:record_id", h.DeleteRecord)
	e.POST("/add_history/:patient_id", h.AddHistory)

	// JSON read API
	e.GET("/history/:history_id", h.GetHistory)
	e.GET("/api/patients", h.ListPatients)
	e.GET("/api/patients/:patient_id", h.GetPatient)
}

// -- HTML views --

func (h *Handler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	search := strings.TrimSpace(c.QueryParam("search"))

	patients, err := h.svc.ListPatients(ctx, search)
	h.record("patient", "list", err)
	if err != nil {
		h.fail(c, err, "list_patients", "Error loading patients")
		patients = nil
	}

	return c.Render(http.StatusOK, "index.html", IndexView{
		Patients:  patients,
		Search:    search,
		Signature: h.signature(ctx),
		Notices:   h.flashes.Pop(c),
	})
}

func (h *Handler) ViewPatient(c echo.Context) error {
	id, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	detail, err := h.svc.GetPatientDetail(ctx, id)
	h.record("patient", "detail", err)
	if errors.Is(err, db.ErrNotFound) {
		h.notify(c, flash.CategoryError, "Patient not found")
		return c.Redirect(http.StatusFound, "/")
	}
	if err != nil {
		h.fail(c, err, "view_patient", "Error viewing patient details")
		return c.Redirect(http.StatusFound, "/")
	}

	return c.Render(http.StatusOK, "patient_details.html", DetailView{
		Patient:   detail.Patient,
		Visits:    detail.Visits,
		History:   detail.History,
		Signature: h.signature(ctx),
		Notices:   h.flashes.Pop(c),
	})
}

// -- Patient writes --

func (h *Handler) AddPatient(c echo.Context) error {
	var f Fields
	if err := c.Bind(&f); err != nil {
		h.fail(c, err, "add_patient", "Error adding patient. Please try again.")
		return c.Redirect(http.StatusFound, "/")
	}

	_, err := h.svc.CreatePatient(c.Request().Context(), f)
	h.record("patient", "create", err)
	if err != nil {
		h.fail(c, err, "add_patient", "Error adding patient. Please try again.")
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) EditPatient(c echo.Context) error {
	id, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}
	target := detailPath(id)

	var f Fields
	if err := c.Bind(&f); err != nil {
		h.fail(c, err, "edit_patient", "Error editing patient. Please try again.")
		return c.Redirect(http.StatusFound, target)
	}

	err = h.svc.UpdatePatient(c.Request().Context(), id, f)
	h.record("patient", "update", err)
	if err != nil {
		h.fail(c, err, "edit_patient", "Error editing patient. Please try again.")
	}
	return c.Redirect(http.StatusFound, target)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}

	err = h.svc.DeletePatientCascade(c.Request().Context(), id)
	h.record("patient", "delete", err)
	if err != nil {
		h.fail(c, err, "delete_patient", "Error deleting patient")
		return c.Redirect(http.StatusFound, detailPath(id))
	}
	return c.Redirect(http.StatusFound, "/")
}

// -- Visit writes --

func (h *Handler) AddRecord(c echo.Context) error {
	patientID, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}

	_, err = h.svc.AddVisit(c.Request().Context(), patientID, c.FormValue("visit_date"), c.FormValue("notes"))
	h.record("visit", "create", err)
	if err != nil {
		h.fail(c, err, "add_record", "Error adding visit record")
	} else {
		h.notify(c, flash.CategorySuccess, "Visit record added successfully")
	}
	return c.Redirect(http.StatusFound, detailPath(patientID))
}

func (h *Handler) EditRecord(c echo.Context) error {
	visitID, err := parseID(c, "visit_id")
	if err != nil {
		return err
	}
	patientID, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("patient_id")), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Patient ID is required"})
	}

	err = h.svc.UpdateVisit(c.Request().Context(), visitID, patientID, c.FormValue("visit_date"), c.FormValue("notes"))
	h.record("visit", "update", err)
	if err != nil {
		h.fail(c, err, "edit_record", "Error updating visit record")
	} else {
		h.notify(c, flash.CategorySuccess, "Visit record updated successfully")
	}
	return c.Redirect(http.StatusFound, detailPath(patientID))
}

// DeleteRecord redirects to the owning patient, or to the list when the
// record does not exist.
func (h *Handler) DeleteRecord(c echo.Context) error {
	recordID, err := parseID(c, "record_id")
	if err != nil {
		return err
	}

	patientID, err := h.svc.DeleteVisit(c.Request().Context(), recordID)
	h.record("visit", "delete", err)
	if errors.Is(err, db.ErrNotFound) {
		return c.Redirect(http.StatusFound, "/")
	}
	if err != nil {
		h.fail(c, err, "delete_record", "Error deleting visit record")
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Redirect(http.StatusFound, detailPath(patientID))
}

// -- History notes --

func (h *Handler) AddHistory(c echo.Context) error {
	patientID, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}

	var noteID *int64
	if raw := strings.TrimSpace(c.FormValue("id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid history note id")
		}
		noteID = &id
	}

	_, err = h.svc.SaveHistoryNote(c.Request().Context(), patientID, noteID, c.FormValue("history_note"))
	h.record("history", "save", err)
	if err != nil {
		h.fail(c, err, "add_history", "Error saving history note")
	}
	return c.Redirect(http.StatusFound, detailPath(patientID))
}

func (h *Handler) GetHistory(c echo.Context) error {
	id, err := parseID(c, "history_id")
	if err != nil {
		return err
	}

	note, err := h.svc.GetHistoryNote(c.Request().Context(), id)
	h.record("history", "get", err)
	if err != nil {
		return h.apiError(err, "get_history", "history note not found")
	}
	return c.JSON(http.StatusOK, note)
}

// -- JSON read API --

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	items, err := h.svc.ListPatients(c.Request().Context(), strings.TrimSpace(c.QueryParam("search")))
	h.record("patient", "list", err)
	if err != nil {
		return h.apiError(err, "api_list_patients", "")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(items, p), len(items), p.Limit, p.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c, "patient_id")
	if err != nil {
		return err
	}

	detail, err := h.svc.GetPatientDetail(c.Request().Context(), id)
	h.record("patient", "detail", err)
	if err != nil {
		return h.apiError(err, "api_get_patient", "patient not found")
	}
	return c.JSON(http.StatusOK, detail)
}

// -- helpers --

func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func detailPath(id int64) string {
	return fmt.Sprintf("/patient/%d", id)
}

func (h *Handler) record(entity, operation string, err error) {
	if h.metrics != nil {
		h.metrics.RecordOperation(entity, operation, err)
	}
}

func (h *Handler) signature(ctx context.Context) signature.Info {
	info, err := h.signatures.Get(ctx)
	if err != nil {
		h.logger.Error().Err(err).Str("op", "load_signature").Msg("signature read failed")
		return signature.Info{}
	}
	return *info
}

func (h *Handler) notify(c echo.Context, category, message string) {
	if err := h.flashes.Add(c, category, message); err != nil {
		h.logger.Warn().Err(err).Msg("flash notice dropped")
	}
}

// fail logs a storage failure and queues the user-visible notice.
func (h *Handler) fail(c echo.Context, err error, op, message string) {
	h.logger.Error().Err(err).Str("op", op).Str("path", c.Request().URL.Path).Msg("request failed")
	h.notify(c, flash.CategoryError, message)
}

func (h *Handler) apiError(err error, op, notFound string) error {
	if notFound != "" && errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	}
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "storage error")
}
