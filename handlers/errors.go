package handlers

import (
	"errors"
	"net/http"

	"magicweekends/models"
	"magicweekends/services/booking"
	"magicweekends/services/bookingapi"
	"magicweekends/services/catalog"
	"magicweekends/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// wizardErrorResponse carries the wizard alongside the failure so the
// storefront can re-render the current step.
type wizardErrorResponse struct {
	Message string             `json:"message"`
	Fields  map[string]string  `json:"fields,omitempty"`
	Wizard  *models.WizardView `json:"wizard,omitempty"`
}

// respondError maps service errors to HTTP responses. view is the wizard state
// returned alongside err, if any.
func respondError(c *gin.Context, view *models.WizardView, err error) {
	logger := getLogger(c)

	var verrs booking.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, wizardErrorResponse{
			Message: "Please correct the highlighted fields",
			Fields:  verrs,
			Wizard:  view,
		})
		return
	}

	var subErr *bookingapi.SubmissionError
	if errors.As(err, &subErr) {
		logger.Warn("Booking submission failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, wizardErrorResponse{Message: subErr.Message, Wizard: view})
		return
	}

	var apiErr *bookingapi.APIError
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "Booking session not found", "Start a new booking from the trip page")
	case errors.Is(err, catalog.ErrTripNotFound):
		utils.JSONError(c, http.StatusNotFound, "Trip not found", "")
	case errors.Is(err, booking.ErrBusy):
		utils.JSONError(c, http.StatusConflict, "A request for this booking is already in progress", "")
	case errors.Is(err, booking.ErrInvalidTransition):
		utils.JSONError(c, http.StatusConflict, "This action is not available at the current step", "")
	case errors.Is(err, booking.ErrNotConfirmed):
		utils.JSONError(c, http.StatusConflict, "Booking is not confirmed yet", "")
	case errors.Is(err, booking.ErrTravelerIndex):
		utils.JSONError(c, http.StatusBadRequest, "Unknown traveler", "")
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 600 {
			status = http.StatusBadGateway
		}
		utils.JSONError(c, status, apiErr.Message, "")
	default:
		logger.Error("Booking request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Something went wrong", "Please try again later")
	}
}
