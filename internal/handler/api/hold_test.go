//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"telehealth-core/internal/handler/api"
	resdto "telehealth-core/internal/handler/dto/response"
	"telehealth-core/internal/infra/uow"
	"telehealth-core/internal/pkg/errs"
	"telehealth-core/internal/pkg/jwt"
	"telehealth-core/internal/usecase/commands"
	"telehealth-core/internal/usecase/queries"
	"telehealth-core/tests/common/httptest"
	commandsmock "telehealth-core/tests/mock/commands"
	queriesmock "telehealth-core/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type HoldHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockHoldCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.HoldHandler

	patientID uuid.UUID
}

func (s *HoldHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockHoldCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewHoldHandler(s.mockCommands, s.mockQueries)

	s.patientID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("subject_id", s.patientID)
		c.Set("role", jwt.RolePatient)
		c.Next()
	}

	s.router.POST("/holds", authMiddleware, s.handler.ReserveHold)
	s.router.GET("/holds/:id", authMiddleware, s.handler.GetHold)
	s.router.POST("/holds/:id/release", authMiddleware, s.handler.ReleaseHold)
	s.router.POST("/holds/:id/renew", authMiddleware, s.handler.RenewHold)
}

func (s *HoldHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestHoldHandlerSuite(t *testing.T) {
	suite.Run(t, new(HoldHandlerTestSuite))
}

func (s *HoldHandlerTestSuite) holdView(id uuid.UUID) *queries.HoldView {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &queries.HoldView{
		ID:              id,
		SpecialistID:    uuid.New(),
		PatientID:       s.patientID,
		StartTime:       start,
		DurationMinutes: 30,
		Status:          "active",
		CreatedAt:       start.Add(-time.Hour),
		ExpiresAt:       start.Add(-time.Hour).Add(time.Minute),
	}
}

func (s *HoldHandlerTestSuite) reserveBody() map[string]any {
	return map[string]any{
		"specialist_id":     uuid.New().String(),
		"start_time":        "2026-03-10T09:00:00Z",
		"duration_minutes":  30,
		"consultation_type": "video",
	}
}

func (s *HoldHandlerTestSuite) TestReserveHold() {
	url := "/holds"

	s.Run("success: returns 201 Created for a fresh hold", func() {
		view := s.holdView(uuid.New())
		s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any()).
			Return(&commands.ReserveResult{Hold: view}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, s.reserveBody(), "bearer-token")

		var response resdto.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(view.ID, response.ID)
		s.Equal("active", response.Status)
		s.False(response.Replayed)
	})

	s.Run("success: replayed reservation answers 200 OK", func() {
		view := s.holdView(uuid.New())
		s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any()).
			Return(&commands.ReserveResult{Hold: view, Replayed: true}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, s.reserveBody(), "bearer-token")

		var response resdto.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(response.Replayed)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing specialist_id", mutate: func(m map[string]any) { delete(m, "specialist_id") }},
			{name: "missing start_time", mutate: func(m map[string]any) { delete(m, "start_time") }},
			{name: "zero duration", mutate: func(m map[string]any) { m["duration_minutes"] = 0 }},
			{name: "negative duration", mutate: func(m map[string]any) { m["duration_minutes"] = -15 }},
			{name: "missing consultation_type", mutate: func(m map[string]any) { delete(m, "consultation_type") }},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				body := s.reserveBody()
				tc.mutate(body)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, s.reserveBody(), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "unknown specialist",
				commandsError:  commands.ErrSpecialistNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Specialist not found",
			},
			{
				name:           "specialist not bookable",
				commandsError:  commands.ErrSpecialistNotBookable,
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "not bookable",
			},
			{
				name:           "slot in the past",
				commandsError:  commands.ErrInvalidSlot,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Invalid time slot",
			},
			{
				name:           "overlapping hold",
				commandsError:  commands.ErrSlotConflict,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "already held",
			},
			{
				name:           "retry budget exhausted",
				commandsError:  uow.ErrMaxRetriesExceeded,
				expectedStatus: http.StatusServiceUnavailable,
				expectedMsg:    "contention",
			},
			{
				name:           "internal server error",
				commandsError:  errs.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, s.reserveBody(), "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *HoldHandlerTestSuite) TestReleaseHold() {
	holdID := uuid.New()
	url := "/holds/" + holdID.String() + "/release"

	s.Run("success: returns 200 OK with the released hold", func() {
		view := s.holdView(holdID)
		view.Status = "released"
		s.mockCommands.EXPECT().Release(gomock.Any(), holdID, s.patientID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

		var response resdto.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("released", response.Status)
	})

	s.Run("error: 400 Bad Request on malformed hold ID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/holds/not-a-uuid/release", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid hold ID")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "unknown hold",
				commandsError:  commands.ErrHoldNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Hold not found",
			},
			{
				name:           "another patient's hold",
				commandsError:  commands.ErrNotHoldOwner,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "another patient",
			},
			{
				name:           "already committed",
				commandsError:  commands.ErrHoldAlreadyCommitted,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "already committed",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Release(gomock.Any(), holdID, s.patientID).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *HoldHandlerTestSuite) TestRenewHold() {
	holdID := uuid.New()
	url := "/holds/" + holdID.String() + "/renew"

	s.Run("success: returns 200 OK with the extended hold", func() {
		view := s.holdView(holdID)
		view.ExpiresAt = view.ExpiresAt.Add(time.Minute)
		s.mockCommands.EXPECT().Renew(gomock.Any(), holdID, s.patientID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

		var response resdto.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(view.ExpiresAt.Equal(response.ExpiresAt))
	})

	s.Run("error: 410 Gone when the hold has lapsed", func() {
		s.mockCommands.EXPECT().Renew(gomock.Any(), holdID, s.patientID).
			Return(nil, commands.ErrHoldExpired).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusGone, "expired")
	})

	s.Run("error: 422 Unprocessable Entity at the lifetime cap", func() {
		s.mockCommands.EXPECT().Renew(gomock.Any(), holdID, s.patientID).
			Return(nil, commands.ErrHoldLifetimeExceeded).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "")
	})
}

func (s *HoldHandlerTestSuite) TestGetHold() {
	holdID := uuid.New()
	url := "/holds/" + holdID.String()

	s.Run("success: returns 200 OK with HoldResponse", func() {
		view := s.holdView(holdID)
		s.mockQueries.EXPECT().GetHold(gomock.Any(), holdID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(holdID, response.ID)
		s.Equal(30, response.DurationMinutes)
	})

	s.Run("error: 404 Not Found for an unknown hold", func() {
		s.mockQueries.EXPECT().GetHold(gomock.Any(), holdID).
			Return(nil, queries.ErrHoldNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Hold not found")
	})

	s.Run("error: 403 Forbidden for a hold of another patient", func() {
		view := s.holdView(holdID)
		view.PatientID = uuid.New()
		s.mockQueries.EXPECT().GetHold(gomock.Any(), holdID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Hold belongs to another patient")
	})

	s.Run("success: the specialist side may read the hold", func() {
		view := s.holdView(holdID)
		view.PatientID = uuid.New()
		view.SpecialistID = s.patientID
		s.mockQueries.EXPECT().GetHold(gomock.Any(), holdID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(holdID, response.ID)
	})
}
