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
)

type AppointmentHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewAppointmentHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *AppointmentHandler {
	return &AppointmentHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// CommitHold finalizes a hold into a durable appointment. Repeats are
// deterministic: the first commit wins, later ones get 409.
func (h *AppointmentHandler) CommitHold(c *gin.Context) {
	holdID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid hold ID format",
		})
		return
	}

	var req reqdto.CommitHoldRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.bookingCommands.Commit(c.Request.Context(), commands.CommitInput{
		HoldID:   holdID,
		FeeCents: req.FeeCents,
		Currency: req.NormalizedCurrency(),
		Metadata: req.Metadata,
	})
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrHoldNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Hold not found",
			})
		case errs.Is(err, commands.ErrInvalidFee):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid appointment fee",
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
		case errs.Is(err, commands.ErrSlotConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Interval is already booked",
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

	c.JSON(http.StatusCreated, resdto.FromAppointmentView(result.Appointment))
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	appointmentID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid appointment ID format",
		})
		return
	}

	view, err := h.bookingQueries.GetAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		switch {
		case errs.Is(err, queries.ErrAppointmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Appointment not found",
			})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAppointmentView(view))
}

// CancelAppointment retracts a booked interval so the slot opens up again.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	requesterID, ok := middleware.GetSubjectID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	appointmentID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid appointment ID format",
		})
		return
	}

	if err := h.bookingCommands.CancelAppointment(c.Request.Context(), appointmentID, requesterID); err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	appointmentID, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid appointment ID format",
		})
		return
	}

	if err := h.bookingCommands.CompleteAppointment(c.Request.Context(), appointmentID); err != nil {
		h.respondLifecycleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AppointmentHandler) respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, queries.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Appointment not found",
		})
	case errs.Is(err, commands.ErrNotHoldOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Appointment belongs to another party",
		})
	case errs.Is(err, uow.ErrMaxRetriesExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Temporary contention, please retry",
		})
	case errs.Is(err, commands.ErrDatabaseOperationFailed):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	default:
		c.JSON(http.StatusConflict, gin.H{
			"error": "Appointment state does not allow this transition",
		})
	}
}
