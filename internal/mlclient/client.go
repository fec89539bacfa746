// Package mlclient talks to the external analytics service that classifies
// sound readings and flags anomalies. The service is optional; the client is
// nil when no URL is configured.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// MaxAnalyticsLimit is the larger ceiling granted to analytics-oriented
// queries; it bounds how many readings a single prediction request may cover.
const MaxAnalyticsLimit = 5000

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type PredictionRequest struct {
	Limit     int `json:"limit"`
	HoursBack int `json:"hours_back,omitempty"`
}

type Prediction struct {
	Value              float64 `json:"value"`
	Timestamp          string  `json:"timestamp"`
	CategoryRule       string  `json:"category_rule"`
	CategoryML         string  `json:"category_ml,omitempty"`
	CategoryConfidence float64 `json:"category_confidence,omitempty"`
	IsAnomaly          bool    `json:"is_anomaly"`
	AnomalyScore       float64 `json:"anomaly_score"`
}

type PredictionSummary struct {
	TotalReadings int     `json:"total_readings"`
	AvgValue      float64 `json:"avg_value"`
	MaxValue      float64 `json:"max_value"`
	MinValue      float64 `json:"min_value"`
	AnomalyCount  int     `json:"anomaly_count"`
}

type PredictionResponse struct {
	Success       bool              `json:"success"`
	TotalReadings int               `json:"total_readings"`
	Predictions   []Prediction      `json:"predictions"`
	Summary       PredictionSummary `json:"summary"`
}

type Analysis struct {
	TotalReadings     int     `json:"total_readings"`
	AvgLevel          float64 `json:"avg_level"`
	StdLevel          float64 `json:"std_level"`
	MinLevel          float64 `json:"min_level"`
	MaxLevel          float64 `json:"max_level"`
	AnomalyCount      int     `json:"anomaly_count"`
	AnomalyPercentage float64 `json:"anomaly_percentage"`
	PeakHour          int     `json:"peak_hour"`
	QuietestHour      int     `json:"quietest_hour"`
}

type AnalysisResponse struct {
	Success  bool     `json:"success"`
	Analysis Analysis `json:"analysis"`
}

type HealthResponse struct {
	Status                string `json:"status"`
	DatabaseConnected     bool   `json:"database_connected"`
	ClassifierLoaded      bool   `json:"classifier_loaded"`
	AnomalyDetectorLoaded bool   `json:"anomaly_detector_loaded"`
}

// Predict requests classifications for recent readings. limit is clamped to
// MaxAnalyticsLimit.
func (c *Client) Predict(ctx context.Context, limit, hoursBack int) (*PredictionResponse, error) {
	if limit <= 0 || limit > MaxAnalyticsLimit {
		limit = MaxAnalyticsLimit
	}
	var resp PredictionResponse
	if err := c.post(ctx, "/predict", PredictionRequest{Limit: limit, HoursBack: hoursBack}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analysis requests a pattern analysis over recent readings.
func (c *Client) Analysis(ctx context.Context, limit, hoursBack int) (*AnalysisResponse, error) {
	if limit <= 0 || limit > MaxAnalyticsLimit {
		limit = MaxAnalyticsLimit
	}
	url := c.baseURL + "/analysis?limit=" + strconv.Itoa(limit)
	if hoursBack > 0 {
		url += "&hours_back=" + strconv.Itoa(hoursBack)
	}
	var resp AnalysisResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Train triggers model retraining and returns the service's status message.
func (c *Client) Train(ctx context.Context, minSamples int) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/train", map[string]int{"min_samples": minSamples}, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "Training started", nil
	}
	return resp.Message, nil
}

// Health checks the analytics service.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, c.baseURL+"/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal ml request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build ml request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build ml request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ml service request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ml service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse ml response: %w", err)
	}
	return nil
}
