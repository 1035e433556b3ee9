package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/route"
	"pigeonflight/pkg/terrain"
)

func postRoute(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewRouteHandler(terrain.Synthetic{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/route", strings.NewReader(body)))
	return rec
}

func TestRouteHandler_Found(t *testing.T) {
	rec := postRoute(t, `{"start":{"lat":31,"lng":30},"end":{"lat":31.5,"lng":30}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, route.OutcomeFound, resp.Outcome)
	require.NotEmpty(t, resp.Path)
	assert.Equal(t, geo.Point{Lat: 31, Lon: 30}, resp.Path[0])
	assert.Positive(t, resp.GridNodes)
	assert.InDelta(t, geo.PathLength(resp.Path), resp.DistanceM, 1e-6)
	require.NotNil(t, resp.GeoJSON)
	assert.Len(t, resp.GeoJSON.Features, 3)
	assert.Equal(t, "found", resp.GeoJSON.Features[0].Properties["outcome"])
}

func TestRouteHandler_Fallback(t *testing.T) {
	// all sea: the grid is empty and the direct path comes back
	rec := postRoute(t, `{"type":"init","start":{"lat":10,"lng":0},"end":{"lat":10.5,"lng":0.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, route.OutcomeFallback, resp.Outcome)
	assert.Equal(t, []geo.Point{{Lat: 10, Lon: 0}, {Lat: 10.5, Lon: 0.5}}, resp.Path)
	assert.Zero(t, resp.GridNodes)
}

func TestRouteHandler_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"Missing End", `{"start":{"lat":31,"lng":30}}`, "end"},
		{"Out Of Range", `{"start":{"lat":91,"lng":30},"end":{"lat":31,"lng":30}}`, "start"},
		{"Wrong Type", `{"type":"path","start":{"lat":31,"lng":30},"end":{"lat":31,"lng":30}}`, "type"},
		{"String Latitude", `{"start":{"lat":"north","lng":30},"end":{"lat":31,"lng":30}}`, "start.lat"},
		{"Malformed", `{"start":`, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postRoute(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantField, body["field"])
			assert.Contains(t, body["error"], "invalid input")
		})
	}
}
