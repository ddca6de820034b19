// Package bookingapi talks to the upstream booking REST API: order creation,
// payment verification and the customer's booking records.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"magicweekends/models"
	"magicweekends/services/pricing"
	"magicweekends/utils"
)

// Client is a thin HTTP client for the booking API. The caller's bearer token
// is taken from the request context.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := utils.BearerTokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends the request and decodes the response envelope. A body that is not
// JSON yields a zero envelope together with the HTTP status.
func (c *Client) do(req *http.Request) (envelope, int, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return envelope{}, 0, err
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, resp.StatusCode, err
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return env, resp.StatusCode, nil
}

type travelerPayload struct {
	Name    string `json:"name"`
	Age     any    `json:"age"`
	Gender  string `json:"gender"`
	IDProof string `json:"id_proof"`
}

type createData struct {
	ID             json.RawMessage `json:"id"`
	GatewayOrderID string          `json:"razorpay_order_id"`
	GatewayKeyID   string          `json:"razorpay_key_id"`
}

// CreateBooking submits the draft as a multipart form and returns the pending
// order. Every failure is a *SubmissionError; nothing is retried.
func (c *Client) CreateBooking(ctx context.Context, draft models.BookingDraft, trip models.TripSnapshot) (*models.PendingOrder, error) {
	body, contentType, err := encodeBookingForm(draft, trip)
	if err != nil {
		return nil, &SubmissionError{Message: DefaultSubmissionMessage, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/Booking/bookings", body)
	if err != nil {
		return nil, &SubmissionError{Message: DefaultSubmissionMessage, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	env, status, err := c.do(req)
	if err != nil {
		return nil, &SubmissionError{Message: DefaultSubmissionMessage, Status: status, Err: err}
	}
	if status < 200 || status >= 300 || !env.Success {
		msg := env.reason()
		if msg == "" {
			msg = DefaultSubmissionMessage
		}
		return nil, &SubmissionError{Message: msg, Status: status}
	}

	var data createData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &SubmissionError{Message: DefaultSubmissionMessage, Status: status, Err: fmt.Errorf("decode order: %w", err)}
	}
	order := &models.PendingOrder{
		BookingID:        rawID(data.ID),
		GatewayOrderID:   data.GatewayOrderID,
		GatewayPublicKey: data.GatewayKeyID,
	}
	if order.BookingID == "" || order.GatewayOrderID == "" || order.GatewayPublicKey == "" {
		return nil, &SubmissionError{Message: DefaultSubmissionMessage, Status: status, Err: fmt.Errorf("incomplete order in response")}
	}
	return order, nil
}

func encodeBookingForm(draft models.BookingDraft, trip models.TripSnapshot) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	travelDate := ""
	if draft.TravelDate != nil {
		travelDate = draft.TravelDate.Format("2006-01-02")
	}
	fields := [][2]string{
		{"trip_id", trip.ID},
		{"trip_type", string(trip.Type)},
		{"full_name", draft.Contact.FullName},
		{"email", draft.Contact.Email},
		{"phone", draft.Contact.Phone},
		{"travel_date", travelDate},
		{"number_of_people", strconv.Itoa(draft.TravelerCount)},
		{"price_per_person", formatAmount(trip.PricePerPerson)},
		{"total_amount", formatAmount(pricing.Total(trip.PricePerPerson, draft.TravelerCount))},
		{"payment_method", string(draft.PaymentMethod)},
		{"special_request", draft.SpecialRequest},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	travelers := make([]travelerPayload, len(draft.Travelers))
	for i, t := range draft.Travelers {
		travelers[i] = travelerPayload{
			Name:    t.Name,
			Age:     "",
			Gender:  string(t.Gender),
			IDProof: string(t.IDProofType),
		}
		if t.Age != nil {
			travelers[i].Age = *t.Age
		}
	}
	travelersJSON, err := json.Marshal(travelers)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("travelers_data", string(travelersJSON)); err != nil {
		return nil, "", err
	}

	for i, t := range draft.Travelers {
		if t.IDProof == nil || len(t.IDProof.Data) == 0 {
			continue
		}
		part, err := createFilePart(w, fmt.Sprintf("id_proof_image_%d", i), t.IDProof)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(t.IDProof.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func createFilePart(w *multipart.Writer, field string, a *models.Attachment) (io.Writer, error) {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(a.Filename)))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// VerifyPayment forwards the gateway proof. Only an explicit success counts.
func (c *Client) VerifyPayment(ctx context.Context, proof models.PaymentProof) error {
	payload, err := json.Marshal(proof)
	if err != nil {
		return &VerificationError{Reason: "encode proof", Err: err}
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/Booking/verify-payment", bytes.NewReader(payload))
	if err != nil {
		return &VerificationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	env, status, err := c.do(req)
	if err != nil {
		return &VerificationError{Reason: "transport", Status: status, Err: err}
	}
	if status < 200 || status >= 300 {
		return &VerificationError{Reason: orDefault(env.reason(), "unexpected status "+strconv.Itoa(status)), Status: status}
	}
	if !env.Success {
		return &VerificationError{Reason: orDefault(env.reason(), "not confirmed"), Status: status}
	}
	return nil
}

// GetUserBookings lists every booking made with the email address.
func (c *Client) GetUserBookings(ctx context.Context, email string) ([]models.BookingRecord, error) {
	var raw []upstreamBooking
	if err := c.getData(ctx, "/Booking/bookings/user/"+url.PathEscape(email), &raw); err != nil {
		return nil, err
	}
	records := make([]models.BookingRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// GetBooking fetches one booking.
func (c *Client) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	var raw upstreamBooking
	if err := c.getData(ctx, "/Booking/bookings/"+url.PathEscape(id), &raw); err != nil {
		return nil, err
	}
	record := raw.toRecord()
	return &record, nil
}

// CancelBooking asks the booking API to cancel the booking.
func (c *Client) CancelBooking(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/Booking/bookings/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	env, status, err := c.do(req)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if status < 200 || status >= 300 || !env.Success {
		return &APIError{Status: status, Message: orDefault(env.reason(), "cancel failed")}
	}
	return nil
}

func (c *Client) getData(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	env, status, err := c.do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if status < 200 || status >= 300 || !env.Success {
		return &APIError{Status: status, Message: orDefault(env.reason(), http.StatusText(status))}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
