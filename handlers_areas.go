package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agrideal/geo"
	"agrideal/models"
	"agrideal/registry"
)

// Machine-readable error codes so a client can tell a spatial conflict
// from bad geometry.
const (
	codeMalformed = "malformed_geometry"
	codeOverlap   = "overlap"
	codeNotFound  = "not_found"
)

type errorResp struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResp{Error: code, Detail: detail})
}

type createAreaReq struct {
	GeoJSON      string `json:"geoJson"` // serialized GeoJSON Polygon, single ring
	CropType     string `json:"cropType"`
	PlantingDate string `json:"plantingDate"`
	HarvestDate  string `json:"harvestDate"`
}

// handleCreateArea validates the submitted polygon against every stored
// parcel and registers it. The insert is transactional: on overlap or
// malformed geometry nothing changes and the response carries a
// distinct error code.
func (a *App) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	var req createAreaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeMalformed, "bad json")
		return
	}
	if req.GeoJSON == "" {
		writeError(w, http.StatusBadRequest, codeMalformed, "geoJson is required")
		return
	}

	p, err := a.registry.Insert(r.Context(), req.GeoJSON, registry.Metadata{
		CropType:     req.CropType,
		PlantingDate: req.PlantingDate,
		HarvestDate:  req.HarvestDate,
	})
	if err != nil {
		var gerr *geo.GeometryError
		var oerr *registry.OverlapError
		switch {
		case errors.As(err, &gerr):
			writeError(w, http.StatusBadRequest, codeMalformed, gerr.Reason)
		case errors.As(err, &oerr):
			writeError(w, http.StatusConflict, codeOverlap, oerr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "db_error", "insert failed")
		}
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// handleListAreas returns all parcels in insertion order.
func (a *App) handleListAreas(w http.ResponseWriter, r *http.Request) {
	parcels := a.registry.List()
	if parcels == nil {
		parcels = []models.Parcel{}
	}
	_ = json.NewEncoder(w).Encode(parcels)
}

// handleGetArea returns a single parcel by id.
func (a *App) handleGetArea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := a.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown parcel")
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}
