package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

const (
	feedbackRateLimit   = 5
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour
	feedbackTrackedIPs  = 4096

	feedbackImpactMessage = "Your feedback will help improve wait time predictions for everyone."
)

// FeedbackService defines the feedback operations used by the handler.
type FeedbackService interface {
	Create(ctx context.Context, feedback *entities.Feedback) error
	Stats(ctx context.Context, now time.Time) (*entities.FeedbackStats, error)
}

// FeedbackHandler handles wait time reports.
type FeedbackHandler struct {
	service FeedbackService
	cache   providers.CacheProvider
	clock   providers.Clock
	local   *localRateLimiter
	deduper *expirable.LRU[string, struct{}]
}

// NewFeedbackHandler creates a new feedback handler. When cache is nil, rate
// limiting and duplicate detection are process local.
func NewFeedbackHandler(service FeedbackService, cache providers.CacheProvider, clock providers.Clock) *FeedbackHandler {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &FeedbackHandler{
		service: service,
		cache:   cache,
		clock:   clock,
		local:   newLocalRateLimiter(),
		deduper: expirable.NewLRU[string, struct{}](feedbackTrackedIPs, nil, feedbackDedupWindow),
	}
}

type feedbackRequest struct {
	HospitalID     string `json:"hospitalId"`
	HospitalName   string `json:"hospitalName"`
	ReportType     string `json:"reportType"`
	ActualWaitTime *int   `json:"actualWaitTime,omitempty"`
	Comments       string `json:"comments,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.HospitalID = strings.TrimSpace(payload.HospitalID)
	payload.HospitalName = strings.TrimSpace(payload.HospitalName)
	payload.ReportType = strings.TrimSpace(payload.ReportType)
	payload.Comments = strings.TrimSpace(payload.Comments)

	if payload.HospitalID == "" || payload.ReportType == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if len(payload.Comments) > 1000 {
		respondWithError(w, http.StatusBadRequest, "comments are too long")
		return
	}
	if len(payload.HospitalName) > 300 || len(payload.ReportType) > 100 {
		respondWithError(w, http.StatusBadRequest, "field is too long")
		return
	}

	ip := clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), "feedback:rate:"+ip)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if h.isDuplicate(r.Context(), "feedback:dup:"+feedbackFingerprint(payload, ip)) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	feedback := &entities.Feedback{
		HospitalID:     payload.HospitalID,
		HospitalName:   payload.HospitalName,
		ReportType:     payload.ReportType,
		ActualWaitTime: payload.ActualWaitTime,
		Comments:       payload.Comments,
		UserAgent:      r.UserAgent(),
	}
	if payload.Timestamp > 0 {
		feedback.ReportedAt = time.UnixMilli(payload.Timestamp).UTC()
	}

	if err := h.service.Create(r.Context(), feedback); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("hospital_id", feedback.HospitalID).
			Msg("failed to save feedback")
		respondWithAppError(w, err, "Failed to save feedback")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Feedback received successfully",
		"id":      feedback.ID,
		"impact":  feedbackImpactMessage,
	})
}

// GetStats handles GET /api/feedback
func (h *FeedbackHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), h.clock.Now())
	if err != nil {
		respondWithAppError(w, err, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *FeedbackHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key)
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= feedbackRateLimit {
		return false, feedbackRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(feedbackRateWindow.Seconds()))
	return true, feedbackRateWindow
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *FeedbackHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		if _, ok := h.deduper.Get(key); ok {
			return true
		}
		h.deduper.Add(key, struct{}{})
		return false
	}

	exists, err := h.cache.Exists(ctx, key)
	if err == nil && exists {
		return true
	}

	_ = h.cache.Set(ctx, key, []byte("1"), int(feedbackDedupWindow.Seconds()))
	return false
}

// localRateLimiter keeps one token bucket per client, refilled at
// feedbackRateLimit tokens per feedbackRateWindow.
type localRateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	every    rate.Limit
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](feedbackTrackedIPs, nil, feedbackRateWindow),
		every:    rate.Every(feedbackRateWindow / feedbackRateLimit),
	}
}

func (l *localRateLimiter) allow(key string) (bool, time.Duration) {
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.every, feedbackRateLimit)
		l.limiters.Add(key, limiter)
	}

	reservation := limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func feedbackFingerprint(payload feedbackRequest, ip string) string {
	wait := ""
	if payload.ActualWaitTime != nil {
		wait = strconv.Itoa(*payload.ActualWaitTime)
	}
	normalized := []string{
		strings.ToLower(payload.HospitalID),
		strings.ToLower(payload.ReportType),
		wait,
		normalizeFeedback(payload.Comments),
		ip,
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeFeedback(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
