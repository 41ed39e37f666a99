package api

import (
	"net/http"

	reqdto "telehealth-core/internal/handler/dto/request"
	resdto "telehealth-core/internal/handler/dto/response"
	"telehealth-core/internal/handler/middleware"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/usecase/commands"
	"telehealth-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HoldHandler struct {
	holdCommands   commands.HoldCommands
	bookingQueries queries.BookingQueries
}

func NewHoldHandler(holdCommands commands.HoldCommands, bookingQueries queries.BookingQueries) *HoldHandler {
	return &HoldHandler{
		holdCommands:   holdCommands,
		bookingQueries: bookingQueries,
	}
}

// ReserveHold places a temporary exclusive hold on a specialist's slot. A
// replayed reservation (same patient, same interval) answers 200 instead of
// 201 so clients can tell a retry from a fresh hold.
func (h *HoldHandler) ReserveHold(c *gin.Context) {
	patientID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.ReserveHoldRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.holdCommands.Reserve(c.Request.Context(), commands.ReserveInput{
		SpecialistID:     req.SpecialistID,
		PatientID:        patientID,
		StartTime:        req.StartTime,
		Duration:         req.Duration(),
		ConsultationType: req.ConsultationType,
	})
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrSpecialistNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Specialist not found",
			})
		case errs.Is(err, commands.ErrSpecialistNotBookable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Specialist is not bookable for this consultation type",
			})
		case errs.Is(err, commands.ErrInvalidSlot):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid time slot",
			})
		case errs.Is(err, commands.ErrSlotConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Slot is already held or booked",
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

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromHoldView(result.Hold, result.Replayed))
}

// ReleaseHold voluntarily frees a held slot. Releasing an already-terminal
// hold is a no-op and still answers 200.
func (h *HoldHandler) ReleaseHold(c *gin.Context) {
	requesterID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	holdID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid hold ID format",
		})
		return
	}

	view, err := h.holdCommands.Release(c.Request.Context(), holdID, requesterID)
	if err != nil {
		h.respondHoldError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromHoldView(view, false))
}

// RenewHold extends an active hold's expiry, bounded by the hold lifetime
// limit.
func (h *HoldHandler) RenewHold(c *gin.Context) {
	requesterID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	holdID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid hold ID format",
		})
		return
	}

	view, err := h.holdCommands.Renew(c.Request.Context(), holdID, requesterID)
	if err != nil {
		h.respondHoldError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromHoldView(view, false))
}

// GetHold returns a hold to its participants only; a hold leaks a patient's
// booking intent, so third parties get a 403 rather than a view.
func (h *HoldHandler) GetHold(c *gin.Context) {
	requesterID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	holdID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid hold ID format",
		})
		return
	}

	view, err := h.bookingQueries.GetHold(c.Request.Context(), holdID)
	if err != nil {
		switch {
		case errs.Is(err, queries.ErrHoldNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Hold not found",
			})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	if requesterID != view.PatientID && requesterID != view.SpecialistID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Hold belongs to another patient",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromHoldView(view, false))
}

func (h *HoldHandler) respondHoldError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, commands.ErrHoldNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Hold not found",
		})
	case errs.Is(err, commands.ErrNotHoldOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Hold belongs to another patient",
		})
	case errs.Is(err, commands.ErrHoldExpired):
		c.JSON(http.StatusGone, gin.H{
			"error": "Hold has expired",
		})
	case errs.Is(err, commands.ErrHoldAlreadyCommitted):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Hold is already committed",
		})
	case errs.Is(err, commands.ErrHoldAlreadyReleased):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Hold is already released",
		})
	case errs.Is(err, commands.ErrHoldLifetimeExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Hold lifetime limit reached",
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
}

func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}
