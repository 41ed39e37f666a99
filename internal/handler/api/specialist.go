package api

import (
	"context"
	"net/http"
	"time"

	reqdto "telehealth-core/internal/handler/dto/request"
	resdto "telehealth-core/internal/handler/dto/response"
	"telehealth-core/internal/handler/middleware"
	"telehealth-core/internal/pkg/clock"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultAvailabilityWindow = 24 * time.Hour

// SpecialistPresence is the slice of the presence directory the edge exposes
// to specialists themselves.
type SpecialistPresence interface {
	Heartbeat(ctx context.Context, specialistID uuid.UUID, accepting bool, now time.Time) error
	MarkOffline(ctx context.Context, specialistID uuid.UUID) error
}

type SpecialistHandler struct {
	availability queries.AvailabilityQueries
	presence     SpecialistPresence
	clock        clock.Clock
	matchCfg     config.MatchConfig
}

func NewSpecialistHandler(
	availability queries.AvailabilityQueries,
	presence SpecialistPresence,
	clk clock.Clock,
	matchCfg config.MatchConfig,
) *SpecialistHandler {
	return &SpecialistHandler{
		availability: availability,
		presence:     presence,
		clock:        clk,
		matchCfg:     matchCfg,
	}
}

// GetAvailability returns the blocked intervals of a specialist's timeline
// plus the earliest open slot inside the window. Holds count as blocked even
// before they are paid for.
func (h *SpecialistHandler) GetAvailability(c *gin.Context) {
	specialistID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid specialist ID format",
		})
		return
	}

	from := h.clock.Now()
	if raw := c.Query("from"); raw != "" {
		parsed, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid 'from' timestamp, expected RFC3339",
			})
			return
		}
		from = parsed
	}

	window := defaultAvailabilityWindow
	if raw := c.Query("window"); raw != "" {
		parsed, parseErr := time.ParseDuration(raw)
		if parseErr != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid 'window' duration",
			})
			return
		}
		window = parsed
	}
	to := from.Add(window)

	occupied, err := h.availability.Occupied(c.Request.Context(), specialistID, from, to)
	if err != nil {
		if errs.Is(err, queries.ErrInvalidWindow) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid availability window",
			})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	resp := resdto.AvailabilityResponse{
		SpecialistID: specialistID,
		From:         from,
		To:           to,
		Occupied:     resdto.FromOccupiedIntervals(occupied),
	}

	if next, found, err := h.availability.NextOpenSlot(c.Request.Context(), specialistID, from, h.matchCfg.SlotDuration, window); err == nil && found {
		resp.NextOpenSlot = &next
	}

	c.JSON(http.StatusOK, resp)
}

// Heartbeat marks the calling specialist online until the next deadline and
// records whether they are accepting new patients.
func (h *SpecialistHandler) Heartbeat(c *gin.Context) {
	specialistID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.HeartbeatRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.presence.Heartbeat(c.Request.Context(), specialistID, req.Accepting, h.clock.Now()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkOffline removes the calling specialist from the live pool immediately
// instead of waiting for the heartbeat deadline to lapse.
func (h *SpecialistHandler) MarkOffline(c *gin.Context) {
	specialistID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	if err := h.presence.MarkOffline(c.Request.Context(), specialistID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
