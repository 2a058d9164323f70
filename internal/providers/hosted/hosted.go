package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"mentichat/internal/models"
	"mentichat/internal/providers"
	"mentichat/pkg/logger"
)

// DefaultBaseURL is the public Hugging Face inference host.
const DefaultBaseURL = "https://api-inference.huggingface.co"

// maxDetailBytes bounds how much of an error body ends up in a diagnostic.
const maxDetailBytes = 512

// Client implements the hosted inference wire contract.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a hosted inference client. An empty baseURL selects
// DefaultBaseURL; a zero timeout leaves the transport default in place.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Kind returns models.ProviderHosted.
func (c *Client) Kind() models.ProviderKind { return models.ProviderHosted }

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type inferenceRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

func (c *Client) endpoint(model string) string {
	return fmt.Sprintf("%s/models/%s", c.baseURL, strings.Trim(model, "/"))
}

// Send posts text to the selected model and returns the decoded body as-is.
func (c *Client) Send(ctx context.Context, text string, sel models.ProviderSelection) (providers.RawPayload, error) {
	if !sel.HasCredential() || strings.TrimSpace(sel.Model) == "" {
		return providers.RawPayload{}, providers.NewError(providers.KindMissingCredential, c.Kind(),
			"hosted inference requires a model and an API key", nil)
	}

	data, err := json.Marshal(inferenceRequest{
		Inputs:  text,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return providers.RawPayload{}, providers.NewError(providers.KindProviderFailure, c.Kind(), "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sel.Model), bytes.NewBuffer(data))
	if err != nil {
		return providers.RawPayload{}, providers.NewError(providers.KindNetwork, c.Kind(), "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sel.Credential)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("Hosted inference request failed", "error", err, "model", sel.Model)
		return providers.RawPayload{}, providers.NewError(providers.KindNetwork, c.Kind(), "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.RawPayload{}, providers.NewError(providers.KindNetwork, c.Kind(),
			fmt.Sprintf("failed to read response body: %v", err), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), c.endpoint(sel.Model))
		logger.Error("Hosted inference returned non-2xx status", "status", resp.StatusCode, "model", sel.Model)
		detail := err.Error()
		if b := strings.TrimSpace(truncate(string(body), maxDetailBytes)); b != "" {
			detail += ": " + b
		}
		return providers.RawPayload{}, providers.NewError(providers.KindNetwork, c.Kind(), detail, err)
	}

	payload, err := providers.DecodePayload(body)
	if err != nil {
		return providers.RawPayload{}, providers.NewError(providers.KindUnexpectedShape, c.Kind(), "", err)
	}
	return payload, nil
}

// truncate caps s at n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
