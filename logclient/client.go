// Package logclient submits scan records to the remote append service.
//
// Submission is fire-and-forget from the scanner's perspective: the
// response body is logged, never parsed, and dedupe lives entirely in the
// service. Failures degrade to a logged warning; they never abort a scan
// session.
package logclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/filatag/spool-scanner/interfaces"
)

// maxLoggedBody caps how much of a response body ends up in the log.
const maxLoggedBody = 1024

// ScanSubmission is the request body of the append contract. ChipUID is
// included only when non-empty.
type ScanSubmission struct {
	Code    string `json:"code"`
	TrayUID string `json:"trayUid"`
	ChipUID string `json:"chipUid,omitempty"`
}

// Client posts scan records to a single configured endpoint with bounded
// connect/request timeouts.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a submission client. The timeout bounds the whole request,
// connect included.
func New(endpoint string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Submit posts one record. A non-2xx status is reported as an error after
// the body has been logged; the caller treats any error as a warning.
func (c *Client) Submit(ctx context.Context, rec interfaces.ScanRecord) error {
	body, err := json.Marshal(ScanSubmission{
		Code:    rec.Code,
		TrayUID: rec.TrayUID,
		ChipUID: rec.ChipUID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach append service: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	c.log.Info("Append service response",
		"status", resp.StatusCode,
		slog.String("body", string(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("append service returned status %d", resp.StatusCode)
	}
	return nil
}
