package api

import (
	"net/http"

	reqdto "telehealth-core/internal/handler/dto/request"
	resdto "telehealth-core/internal/handler/dto/response"
	"telehealth-core/internal/handler/middleware"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchCommands commands.MatchCommands
}

func NewMatchHandler(matchCommands commands.MatchCommands) *MatchHandler {
	return &MatchHandler{
		matchCommands: matchCommands,
	}
}

// FindMatch routes the patient to the best available specialist and answers
// with a fresh hold on a concrete slot.
func (h *MatchHandler) FindMatch(c *gin.Context) {
	patientID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.FindMatchRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.matchCommands.FindMatch(c.Request.Context(), commands.FindMatchInput{
		PatientID:                patientID,
		PatientTimezoneOffsetMin: req.TimezoneOffsetMinutes,
		Language:                 req.Language,
		Urgency:                  req.Urgency,
		ConsultationType:         req.ConsultationType,
		From:                     req.FromOrZero(),
	})
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrNoneAvailable):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No specialist is currently available",
			})
		case errs.Is(err, commands.ErrMatchExhausted):
			c.JSON(http.StatusConflict, gin.H{
				"error": "All candidate slots were taken, please retry",
			})
		case errs.Is(err, uow.ErrMaxRetriesExceeded):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Temporary contention, please retry",
			})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromMatchResult(result))
}
