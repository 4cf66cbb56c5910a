package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/claiminsight/claiminsight-api/internal/models"
	"github.com/claiminsight/claiminsight-api/internal/utils"
)

// ErrInvalidResponse marks a 2xx upstream reply whose body could not be
// decoded into an AnalysisResult.
var ErrInvalidResponse = errors.New("invalid analysis response")

// StatusError is a non-2xx reply from the analysis service. The gateway
// relays its status and message to the caller unchanged.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned status %d: %s", e.StatusCode, e.Body)
}

// Message extracts the upstream error text: the "error" field when the
// body is the standard envelope, otherwise the raw body.
func (e *StatusError) Message() string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(e.Body))
}

type Client interface {
	Analyze(ctx context.Context, file io.Reader, filename, damageType string) (*models.AnalysisResult, error)
}

type httpClient struct {
	baseURL string
	logger  *utils.Logger
	client  *http.Client
}

// NewClient builds a client for the external image-analysis service. One
// outbound POST per call, no retries; the timeout bounds the whole
// exchange so a hung service cannot hold a gateway worker.
func NewClient(baseURL string, timeout time.Duration, logger *utils.Logger) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *httpClient) Analyze(ctx context.Context, file io.Reader, filename, damageType string) (*models.AnalysisResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file into request: %w", err)
	}
	if err := writer.WriteField("damage_type", damageType); err != nil {
		return nil, fmt.Errorf("failed to write damage_type field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach analysis service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Analysis service rejected upload", "status", resp.StatusCode, "body", string(body))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("Failed to decode analysis response", "error", err, "body", string(body))
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &result, nil
}
