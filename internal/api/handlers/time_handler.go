package handlers

import (
	"net/http"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
)

// TimeHandler reports how the server buckets the current instant.
type TimeHandler struct {
	clock providers.Clock
}

// NewTimeHandler creates a new time handler.
func NewTimeHandler(clock providers.Clock) *TimeHandler {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &TimeHandler{clock: clock}
}

type timeResponse struct {
	CurrentDateTime string             `json:"currentDateTime"`
	Hour            int                `json:"hour"`
	Month           int                `json:"month"` // January = 0
	TimeOfDay       entities.TimeOfDay `json:"timeOfDay"`
	Season          entities.Season    `json:"season"`
	DayOfWeek       string             `json:"dayOfWeek"`
	IsWeekend       bool               `json:"isWeekend"`
}

// GetTime handles GET /api/time
func (h *TimeHandler) GetTime(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	respondWithJSON(w, http.StatusOK, timeResponse{
		CurrentDateTime: now.Format(time.RFC3339),
		Hour:            now.Hour(),
		Month:           int(now.Month()) - 1,
		TimeOfDay:       entities.TimeOfDayForHour(now.Hour()),
		Season:          entities.SeasonForTime(now),
		DayOfWeek:       now.Weekday().String(),
		IsWeekend:       entities.IsWeekendDay(now.Weekday()),
	})
}
