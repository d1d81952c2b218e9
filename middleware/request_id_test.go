package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := RequestID()(func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		return nil
	})(c)
	if err != nil {
		t.Fatal(err)
	}

	if seen == "" {
		t.Fatal("no request id on the context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("generated id %q is not a uuid", seen)
	}
	if got := rec.Header().Get(requestIDHeader); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}

func TestRequestID_HonorsIncoming(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "caller-supplied")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequestID()(func(c echo.Context) error { return nil })(c)
	if err != nil {
		t.Fatal(err)
	}

	if got := rec.Header().Get(requestIDHeader); got != "caller-supplied" {
		t.Errorf("response header = %q, want the caller's id", got)
	}
	if got, _ := c.Get("request_id").(string); got != "caller-supplied" {
		t.Errorf("context id = %q, want the caller's id", got)
	}
}
