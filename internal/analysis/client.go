// Package analysis talks to the remote screenshot analysis service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"sentiscope/internal/config"
	"sentiscope/internal/domain"
	"sentiscope/internal/port"
	"sentiscope/internal/report"
)

const (
	analyzePath = "/api/analyze"
	healthPath  = "/api/health"

	defaultTimeout = 180 * time.Second
	healthTimeout  = 5 * time.Second
	maxErrorBody   = 64 * 1024
)

// Client implements port.AnalysisService over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a client for the configured analysis service.
func NewClient(cfg *config.AnalysisConfig) *Client {
	return NewClientWithHTTP(cfg, nil)
}

// NewClientWithHTTP creates a client using a caller-supplied http.Client
// (for testing). A nil hc gets one with the configured timeout.
func NewClientWithHTTP(cfg *config.AnalysisConfig, hc *http.Client) *Client {
	if hc == nil {
		timeout := time.Duration(cfg.TimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  hc,
	}
}

// analyzeResponse is the service's success envelope.
type analyzeResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *domain.Report `json:"data"`
}

// SubmitAnalysis uploads the screenshots as multipart "images" parts with an
// optional "search_keyword" field and normalizes the reply.
func (c *Client) SubmitAnalysis(ctx context.Context, files []domain.FileCandidate, keyword string) port.AnalysisOutcome {
	body, contentType, err := buildMultipart(files, keyword)
	if err != nil {
		return port.TransportFailure(fmt.Sprintf("building request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, body)
	if err != nil {
		return port.TransportFailure(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("analysis.SubmitAnalysis: request failed: %v", err)
		return port.TransportFailure(fmt.Sprintf("could not reach analysis service: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return port.TransportFailure(fmt.Sprintf("reading response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("analysis.SubmitAnalysis: status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		out := port.TransportFailure(ErrorMessage(resp.StatusCode, respBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			out.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return out
	}

	var out analyzeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return port.TransportFailure(fmt.Sprintf("invalid response from analysis service: %v", err))
	}
	if !out.Success || out.Data == nil {
		return port.ApplicationFailure(out.Message)
	}

	rep := report.Normalize(out.Data)
	for _, w := range report.CheckConsistency(rep) {
		log.Printf("analysis.SubmitAnalysis: report %s: %s", rep.AnalysisID, w)
	}
	return port.Success(rep)
}

// CheckAvailability probes the service's health endpoint. Every failure is
// reported as unavailable.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode == http.StatusOK
}

func buildMultipart(files []domain.FileCandidate, keyword string) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, f.Name))
		h.Set("Content-Type", f.MimeType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if kw := strings.TrimSpace(keyword); kw != "" {
		if err := w.WriteField("search_keyword", kw); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
