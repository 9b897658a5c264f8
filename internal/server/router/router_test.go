package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/pettycash/internal/server/handlers"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testDeps(health ...Pinger) Deps {
	return Deps{
		JWTSecret: "router-secret-that-is-long-enough!!",
		Health:    health,
		Auth:      handlers.NewAuthHandler(nil, nil, nil),
		Stores:    handlers.NewStoreHandler(nil, nil),
		Ledger:    handlers.NewLedgerHandler(nil, nil, nil),
		Audits:    handlers.NewAuditHandler(nil, nil),
		Transfers: handlers.NewTransferHandler(nil, nil),
		Exports:   handlers.NewExportHandler(nil, nil, nil),
		Scans:     handlers.NewScanHandler(nil, nil, nil),
	}
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name string
		deps []Pinger
		want int
	}{
		{"no deps", nil, http.StatusOK},
		{"all up", []Pinger{stubPinger{}, stubPinger{}}, http.StatusOK},
		{"one down", []Pinger{stubPinger{}, stubPinger{err: errors.New("redis down")}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(testDeps(tt.deps...), nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := New(testDeps(), nil)
	for _, path := range []string{"/api/stores", "/api/stores/north/summary?month=2024-01", "/ws/scans?session=x"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestScannerParamsIsPublic(t *testing.T) {
	r := New(testDeps(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scanner/params?store=north", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rec.Code, http.StatusOK)
	}
}
