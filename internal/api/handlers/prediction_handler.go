package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

// WaitTimeEstimator defines the prediction operation used by the handler.
type WaitTimeEstimator interface {
	Estimate(ctx context.Context, query services.EstimateQuery) (*entities.WaitTimeEstimate, error)
}

// PredictionHandler serves wait time predictions.
type PredictionHandler struct {
	estimator WaitTimeEstimator
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(estimator WaitTimeEstimator) *PredictionHandler {
	return &PredictionHandler{estimator: estimator}
}

// Predict handles GET /api/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	latitude, okLat := parseFloatParam(r, "latitude")
	longitude, okLng := parseFloatParam(r, "longitude")
	if !okLat || !okLng {
		respondWithError(w, http.StatusBadRequest, services.MsgInvalidCoordinates)
		return
	}

	estimate, err := h.estimator.Estimate(r.Context(), services.EstimateQuery{
		Latitude:  latitude,
		Longitude: longitude,
		Urgency:   r.URL.Query().Get("urgency"),
	})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Float64("latitude", latitude).
			Float64("longitude", longitude).
			Msg("wait time prediction failed")
		respondWithAppError(w, err, "Failed to predict wait times")
		return
	}

	respondWithJSON(w, http.StatusOK, estimate)
}
