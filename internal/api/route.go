package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/model"
	"pigeonflight/pkg/route"
	"pigeonflight/pkg/terrain"
)

const maxRouteBody = 4096

// RouteHandler plans a route without flying it.
type RouteHandler struct {
	model terrain.Model
}

func NewRouteHandler(m terrain.Model) *RouteHandler {
	return &RouteHandler{model: m}
}

type RouteResponse struct {
	Path      []geo.Point                `json:"path"`
	Outcome   route.Outcome              `json:"outcome"`
	Expanded  int                        `json:"expanded"`
	GridNodes int                        `json:"grid_nodes"`
	DistanceM float64                    `json:"distance_m"`
	GeoJSON   *geojson.FeatureCollection `json:"geojson"`
}

// ServeHTTP accepts {"start": {...}, "end": {...}}. The "type" field is
// optional here.
func (h *RouteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRouteBody))
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	cmd, err := decodeRouteRequest(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	start, end := *cmd.Start, *cmd.End
	grid := route.BuildGrid(start, end, h.model)
	res := route.Search(start, end, grid)
	dist := geo.PathLength(res.Path)

	resp := RouteResponse{
		Path:      res.Path,
		Outcome:   res.Outcome,
		Expanded:  res.Expanded,
		GridNodes: grid.Len(),
		DistanceM: dist,
		GeoJSON: geo.PathFeatureCollection(res.Path, map[string]any{
			"outcome":    string(res.Outcome),
			"distance_m": dist,
		}),
	}

	slog.Debug("Route planned", "start", start, "end", end, "outcome", res.Outcome, "waypoints", len(res.Path))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to write route response", "error", err)
	}
}

func decodeRouteRequest(body []byte) (model.InitCommand, error) {
	var probe struct {
		Type model.MessageType `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Type == "" {
		// accept a bare {start, end} body
		var cmd model.InitCommand
		if err := json.Unmarshal(body, &cmd); err != nil {
			return model.DecodeInit(body)
		}
		cmd.Type = model.TypeInit
		return cmd, cmd.Validate()
	}
	return model.DecodeInit(body)
}

func writeJSONError(w http.ResponseWriter, code int, err error) {
	var inv *model.InvalidInputError
	field := ""
	if errors.As(err, &inv) {
		field = inv.Field
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"field": field,
	})
}
