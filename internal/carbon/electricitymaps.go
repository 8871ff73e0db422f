package carbon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ElectricityMaps queries the Electricity Maps latest carbon intensity endpoint.
type ElectricityMaps struct {
	baseURL string
	token   string
	client  *http.Client
}

type latestIntensityResponse struct {
	Zone            string   `json:"zone"`
	CarbonIntensity *float64 `json:"carbonIntensity"`
	Datetime        string   `json:"datetime"`
}

// NewElectricityMaps creates a client. A nil httpClient gets a 10s default; the
// Resolver applies its own, usually shorter, deadline per call.
func NewElectricityMaps(baseURL, token string, httpClient *http.Client) *ElectricityMaps {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ElectricityMaps{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  httpClient,
	}
}

func (e *ElectricityMaps) Name() Source { return SourceElectricityMaps }

func (e *ElectricityMaps) FetchCarbonIntensity(ctx context.Context, zone string) (float64, error) {
	endpoint := e.baseURL + "/v3/carbon-intensity/latest?zone=" + url.QueryEscape(zone)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("auth-token", e.token)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("electricity maps request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("electricity maps returned %d for zone %s: %s", resp.StatusCode, zone, strings.TrimSpace(string(body)))
	}

	var payload latestIntensityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode electricity maps response: %w", err)
	}
	if payload.CarbonIntensity == nil {
		return 0, fmt.Errorf("electricity maps response for zone %s has no carbonIntensity", zone)
	}
	return *payload.CarbonIntensity, nil
}
