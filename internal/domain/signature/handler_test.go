package signature

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/madjik/clinic/internal/platform/flash"
)

type countingRecorder struct {
	calls map[string]int
}

func (r *countingRecorder) RecordOperation(entity, operation string, err error) {
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[entity+"/"+operation]++
}

func newTestHandler() (*Handler, *mockRepo, *flash.Store, *countingRecorder, *echo.Echo) {
	svc, repo, _ := newTestService()
	flashes := flash.NewStore("test-secret")
	rec := &countingRecorder{}
	h := NewHandler(svc, flashes, zerolog.Nop(), rec)
	e := echo.New()
	return h, repo, flashes, rec, e
}

func TestHandler_UpdateSignatures(t *testing.T) {
	h, repo, flashes, metrics, e := newTestHandler()

	form := url.Values{"lic_no": {"LIC"}, "ptr_no": {"PTR"}, "tin_no": {"TIN"}, "s2_no": {"S2"}}
	req := httptest.NewRequest(http.MethodPost, "/update_signatures", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UpdateSignatures(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	want := Info{LicNo: "LIC", PTRNo: "PTR", TINNo: "TIN", S2No: "S2"}
	if repo.rows[singletonID] != want {
		t.Fatalf("expected %+v stored, got %+v", want, repo.rows[singletonID])
	}
	notices := flashes.Pop(c)
	if len(notices) != 1 || notices[0].Category != flash.CategorySuccess {
		t.Fatalf("expected a success notice, got %+v", notices)
	}
	if metrics.calls["signature/update"] != 1 {
		t.Fatalf("expected update to be recorded, got %+v", metrics.calls)
	}
}

func TestHandler_UpdateSignatures_StorageError(t *testing.T) {
	h, repo, flashes, _, e := newTestHandler()
	repo.putErr = errors.New("database is locked")

	req := httptest.NewRequest(http.MethodPost, "/update_signatures", strings.NewReader("lic_no=X"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UpdateSignatures(c); err != nil {
		t.Fatalf("expected the failure to be handled, got %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	notices := flashes.Pop(c)
	if len(notices) != 1 || notices[0].Message != "Error updating signature info" {
		t.Fatalf("expected an error notice, got %+v", notices)
	}
}

func TestHandler_GetSignature(t *testing.T) {
	h, repo, _, _, e := newTestHandler()
	repo.rows[singletonID] = Info{LicNo: "LIC", S2No: "S2"}

	req := httptest.NewRequest(http.MethodGet, "/api/signature", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetSignature(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["lic_no"] != "LIC" || got["s2_no"] != "S2" || got["ptr_no"] != "" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestHandler_GetSignature_DefaultsOnError(t *testing.T) {
	h, repo, _, _, e := newTestHandler()
	repo.getErr = errors.New("no such table: signatures")

	req := httptest.NewRequest(http.MethodGet, "/api/signature", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetSignature(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]string
	json.Unmarshal(rec.Body.Bytes(), &got)
	for _, key := range []string{"lic_no", "ptr_no", "tin_no", "s2_no"} {
		v, ok := got[key]
		if !ok || v != "" {
			t.Errorf("expected empty %s, got %q (present=%v)", key, v, ok)
		}
	}
}
