package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/muaina/portal/internal/models"
)

// Producer is the external AI pipeline. The portal only dispatches work to
// it and stores what comes back; the pipeline's internals are not modeled
// here.
type Producer interface {
	Analyze(ctx context.Context, fileURL string, patient models.PatientInfo) (*Output, error)
}

// Output carries the producer's two opaque blobs.
type Output struct {
	Analysis       json.RawMessage `json:"ai_analysis"`
	Interpretation json.RawMessage `json:"muaina_interpretation"`
}

type HTTPProducer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProducer(baseURL, apiKey string, timeout time.Duration) *HTTPProducer {
	return &HTTPProducer{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProducer) Analyze(ctx context.Context, fileURL string, patient models.PatientInfo) (*Output, error) {
	body, err := json.Marshal(map[string]interface{}{
		"file_url":     fileURL,
		"patient_info": patient,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analysis producer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis producer returned %d", resp.StatusCode)
	}

	var out Output
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode producer response: %w", err)
	}
	return &out, nil
}
