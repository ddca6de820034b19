package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"magicweekends/models"
	"magicweekends/utils"
)

// HTTPTripProvider reads trips from the catalog endpoints of the booking API.
type HTTPTripProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPTripProvider creates a provider rooted at baseURL.
func NewHTTPTripProvider(baseURL string, timeout time.Duration) *HTTPTripProvider {
	return &HTTPTripProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type tripEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *catalogTrip `json:"data"`
}

type catalogTrip struct {
	MongoID  string          `json:"_id"`
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Duration json.RawMessage `json:"duration"`
	Price    json.RawMessage `json:"price"`
}

func tripPath(tripType models.TripType) (string, error) {
	switch tripType {
	case models.TripTypeNormal:
		return "/Trip/getTripById", nil
	case models.TripTypeWeekend:
		return "/WeekendTrip/getWeekendTripById", nil
	}
	return "", fmt.Errorf("unknown trip type %q", tripType)
}

// GetTrip fetches a trip and normalizes it into a snapshot.
func (p *HTTPTripProvider) GetTrip(ctx context.Context, id string, tripType models.TripType) (*models.TripSnapshot, error) {
	path, err := tripPath(tripType)
	if err != nil {
		return nil, err
	}
	endpoint := p.BaseURL + path + "?id=" + url.QueryEscape(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build trip request: %w", err)
	}
	if token := utils.BearerTokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTripNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch trip: unexpected status %d", resp.StatusCode)
	}

	var env tripEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode trip: %w", err)
	}
	if !env.Success || env.Data == nil {
		return nil, ErrTripNotFound
	}

	return toSnapshot(id, tripType, env.Data), nil
}

func toSnapshot(requestedID string, tripType models.TripType, t *catalogTrip) *models.TripSnapshot {
	id := t.MongoID
	if id == "" {
		id = t.ID
	}
	if id == "" {
		id = requestedID
	}
	return &models.TripSnapshot{
		ID:             id,
		Title:          t.Title,
		DurationLabel:  durationLabel(t.Duration),
		PricePerPerson: NormalizePrice(t.Price),
		Type:           tripType,
	}
}

func durationLabel(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
