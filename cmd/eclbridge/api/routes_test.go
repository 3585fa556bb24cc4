package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinmodel/eclbridge/cmd/eclbridge/conversion"
)

type stubRunner struct {
	stats conversion.Stats
	err   error
}

func (s *stubRunner) RunBatch() (conversion.Stats, error) {
	return s.stats, s.err
}

func TestHandleConvert(t *testing.T) {
	router := NewRouter(nil, zerolog.Nop())
	handler := router.SetupRoutes()

	body := `{"valueSets": "SNOMED CT: - <71388002 |Procedure (procedure)|"}`
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp convertResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Matched)
	assert.Equal(t, "snomed-complex-expression", resp.Rule)
	assert.Equal(t, "< 71388002 |Procedure|", resp.SnomedECL)
}

func TestHandleConvertNoMatch(t *testing.T) {
	router := NewRouter(nil, zerolog.Nop())
	handler := router.SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"valueSets": "Local codes"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp convertResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Matched)
	assert.Empty(t, resp.SnomedECL)
}

func TestHandleConvertBadBody(t *testing.T) {
	router := NewRouter(nil, zerolog.Nop())
	handler := router.SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleRunAndStats(t *testing.T) {
	runner := &stubRunner{stats: conversion.Stats{Examined: 10, Converted: 4, NoPattern: 6}}
	router := NewRouter(runner, zerolog.Nop())
	handler := router.SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats conversion.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.Examined)
	assert.Equal(t, 4, stats.Converted)
}

func TestHandleRunWithoutStore(t *testing.T) {
	router := NewRouter(nil, zerolog.Nop())
	handler := router.SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandleRules(t *testing.T) {
	router := NewRouter(nil, zerolog.Nop())
	handler := router.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp["rules"], 15)
}
