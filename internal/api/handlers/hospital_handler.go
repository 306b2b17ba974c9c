package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

const defaultNearbyLimit = 10

// HospitalDirectory defines the directory operations used by the handler.
type HospitalDirectory interface {
	Nearby(ctx context.Context, latitude, longitude float64, urgency string, limit int) (*entities.HospitalDirectory, error)
	GetByID(ctx context.Context, id string) (*services.HospitalDetail, error)
	Search(ctx context.Context, query string, limit int) ([]*services.HospitalDetail, error)
}

// HospitalHandler handles hospital directory requests.
type HospitalHandler struct {
	directory HospitalDirectory
}

// NewHospitalHandler creates a new hospital handler.
func NewHospitalHandler(directory HospitalDirectory) *HospitalHandler {
	return &HospitalHandler{directory: directory}
}

// ListNearby handles GET /api/hospitals
func (h *HospitalHandler) ListNearby(w http.ResponseWriter, r *http.Request) {
	latitude, okLat := parseFloatParam(r, "latitude")
	longitude, okLng := parseFloatParam(r, "longitude")
	if !okLat || !okLng {
		respondWithError(w, http.StatusBadRequest, services.MsgInvalidCoordinates)
		return
	}

	directory, err := h.directory.Nearby(
		r.Context(),
		latitude,
		longitude,
		r.URL.Query().Get("urgency"),
		parseIntParam(r, "limit", defaultNearbyLimit),
	)
	if err != nil {
		respondWithAppError(w, err, "Failed to list hospitals")
		return
	}

	respondWithJSON(w, http.StatusOK, directory)
}

// GetHospital handles GET /api/hospitals/{id}
func (h *HospitalHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "hospital ID is required")
		return
	}

	hospital, err := h.directory.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "Failed to load hospital")
		return
	}

	respondWithJSON(w, http.StatusOK, hospital)
}

// SearchHospitals handles GET /api/hospitals/search
func (h *HospitalHandler) SearchHospitals(w http.ResponseWriter, r *http.Request) {
	results, err := h.directory.Search(r.Context(), r.URL.Query().Get("q"), parseIntParam(r, "limit", 0))
	if err != nil {
		respondWithAppError(w, err, "Failed to search hospitals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": results,
		"count":     len(results),
	})
}
