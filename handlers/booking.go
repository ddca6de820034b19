package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"magicweekends/models"
	"magicweekends/services/booking"
	"magicweekends/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxIDProofSize bounds identity document uploads.
const MaxIDProofSize = 5 << 20

var allowedProofTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// BookingHandler exposes the booking wizard to the storefront.
type BookingHandler struct {
	Svc    booking.WizardService
	Logger *zap.Logger
}

func NewBookingHandler(svc booking.WizardService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

type openWizardRequest struct {
	TripID   string          `json:"tripId"`
	TripType models.TripType `json:"tripType"`
}

type travelerCountRequest struct {
	TravelerCount int `json:"travelerCount"`
}

type paymentMethodRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

func (h *BookingHandler) respond(c *gin.Context, view *models.WizardView, err error) {
	if err != nil {
		respondError(c, view, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func travelerIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid traveler index", c.Param("index"))
		return 0, false
	}
	return idx, true
}

// OpenWizard starts a fresh wizard for a trip.
func (h *BookingHandler) OpenWizard(c *gin.Context) {
	var req openWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.TripType == "" {
		req.TripType = models.TripTypeNormal
	}
	view, err := h.Svc.Open(c.Request.Context(), req.TripID, req.TripType)
	if err != nil {
		respondError(c, nil, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *BookingHandler) GetWizard(c *gin.Context) {
	view, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

func (h *BookingHandler) UpdateContact(c *gin.Context) {
	var u models.ContactUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	view, err := h.Svc.UpdateContact(c.Request.Context(), c.Param("id"), u)
	h.respond(c, view, err)
}

func (h *BookingHandler) SetTravelerCount(c *gin.Context) {
	var req travelerCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	view, err := h.Svc.SetTravelerCount(c.Request.Context(), c.Param("id"), req.TravelerCount)
	h.respond(c, view, err)
}

func (h *BookingHandler) UpdateTraveler(c *gin.Context) {
	idx, ok := travelerIndex(c)
	if !ok {
		return
	}
	var p models.TravelerPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	view, err := h.Svc.UpdateTraveler(c.Request.Context(), c.Param("id"), idx, p)
	h.respond(c, view, err)
}

// UploadIDProof attaches an identity document to a traveler. The file stays
// with the wizard until the booking is submitted.
func (h *BookingHandler) UploadIDProof(c *gin.Context) {
	idx, ok := travelerIndex(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxIDProofSize+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "No file uploaded", err.Error())
		return
	}
	if fh.Size > MaxIDProofSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", "ID proof must be 5MB or smaller")
		return
	}

	f, err := fh.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read file", err.Error())
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, MaxIDProofSize+1)); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read file", err.Error())
		return
	}
	if buf.Len() > MaxIDProofSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", "ID proof must be 5MB or smaller")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf.Bytes())
	}
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !allowedProofTypes[contentType] {
		utils.JSONError(c, http.StatusUnsupportedMediaType, "Unsupported file type", "Upload a JPEG, PNG, WEBP or PDF")
		return
	}

	a := &models.Attachment{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        int64(buf.Len()),
		Data:        buf.Bytes(),
	}
	view, err := h.Svc.AttachIDProof(c.Request.Context(), c.Param("id"), idx, a)
	h.respond(c, view, err)
}

func (h *BookingHandler) SetPaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	view, err := h.Svc.SetPaymentMethod(c.Request.Context(), c.Param("id"), req.PaymentMethod)
	h.respond(c, view, err)
}

func (h *BookingHandler) Next(c *gin.Context) {
	view, err := h.Svc.Next(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

func (h *BookingHandler) Back(c *gin.Context) {
	view, err := h.Svc.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// Book submits the booking and returns the wizard with its checkout options.
func (h *BookingHandler) Book(c *gin.Context) {
	sessionID := c.Param("id")
	view, err := h.Svc.Book(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, view, err)
		return
	}
	fields := []zap.Field{zap.String("sessionID", sessionID)}
	if view.Checkout != nil {
		fields = append(fields, zap.String("gatewayOrderID", view.Checkout.OrderID), zap.Int64("amount", view.Checkout.Amount))
	}
	h.logger(c).Info("Booking submitted", fields...)
	c.JSON(http.StatusOK, view)
}

// PaymentCallback receives the hosted checkout's success payload. A failed
// verification is a wizard state, so it is still a 200.
func (h *BookingHandler) PaymentCallback(c *gin.Context) {
	var result models.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payment payload", err.Error())
		return
	}
	sessionID := c.Param("id")
	view, err := h.Svc.PaymentCallback(c.Request.Context(), sessionID, result)
	if err != nil {
		respondError(c, view, err)
		return
	}
	if view.State == models.StateVerificationFailed {
		h.logger(c).Error("Payment verification failed",
			zap.String("sessionID", sessionID),
			zap.String("gatewayOrderID", result.GatewayOrderID),
			zap.String("gatewayPaymentID", result.GatewayPaymentID))
	}
	c.JSON(http.StatusOK, view)
}

func (h *BookingHandler) DismissCheckout(c *gin.Context) {
	view, err := h.Svc.DismissCheckout(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// Confirmation returns the receipt as JSON, or as plain text with ?format=text.
func (h *BookingHandler) Confirmation(c *gin.Context) {
	conf, err := h.Svc.Confirmation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, nil, err)
		return
	}
	if c.Query("format") == "text" {
		var buf bytes.Buffer
		if err := conf.Print(&buf); err != nil {
			respondError(c, nil, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (h *BookingHandler) CloseWizard(c *gin.Context) {
	if err := h.Svc.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, nil, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyBookings lists the customer's bookings with per-status counters.
func (h *BookingHandler) MyBookings(c *gin.Context) {
	summary, err := h.Svc.MyBookings(c.Request.Context(), c.Query("email"), c.Query("status"))
	if err != nil {
		respondError(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	rec, err := h.Svc.GetBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondError(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("bookingId")
	if err := h.Svc.CancelBooking(c.Request.Context(), bookingID); err != nil {
		h.logger(c).Warn("Booking cancellation failed", zap.String("bookingID", bookingID), zap.Error(err))
		respondError(c, nil, err)
		return
	}
	h.logger(c).Info("Booking cancelled", zap.String("bookingID", bookingID))
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "bookingId": bookingID})
}
