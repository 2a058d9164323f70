package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mentichat/internal/models"
	"mentichat/internal/providers"
	"mentichat/pkg/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/"

// DefaultModel is used when neither the selection nor the configuration names
// a model.
const DefaultModel = "gemini-1.5-flash"

// Client implements the managed generative-model contract against the Gemini
// generateContent REST endpoint. It holds no credential; each Send uses the
// key carried by its selection.
type Client struct {
	baseURL      string
	defaultModel string // falls back to DefaultModel const
	client       *http.Client
}

// NewClient creates a Gemini client. defaultModel may be empty.
func NewClient(baseURL, defaultModel string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:      baseURL,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: timeout},
	}
}

// Kind returns models.ProviderManaged.
func (p *Client) Kind() models.ProviderKind { return models.ProviderManaged }

func (p *Client) resolveModel(model string) string {
	if model != "" {
		return model
	}
	if p.defaultModel != "" {
		return p.defaultModel
	}
	return DefaultModel
}

// redactKey scrubs key out of s; upstream error bodies can echo it back.
func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "***")
}

// Gemini API structures
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// text joins the parts of the first candidate, mirroring the SDK's
// response.text accessor.
func (r *geminiResponse) text() (string, error) {
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", r.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("response contained no candidates")
	}
	c := r.Candidates[0]
	if len(c.Content.Parts) == 0 {
		return "", fmt.Errorf("candidate has no text parts (finish reason %q)", c.FinishReason)
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// Send issues one generateContent call authenticated with the selection's
// key. Every failure is reported as a provider failure.
func (p *Client) Send(ctx context.Context, text string, sel models.ProviderSelection) (providers.RawPayload, error) {
	if !sel.HasCredential() {
		return providers.RawPayload{}, providers.NewError(providers.KindMissingCredential, p.Kind(),
			"Google API key is missing", nil)
	}

	out, err := p.generate(ctx, sel.Credential, p.resolveModel(sel.Model), text)
	if err != nil {
		detail := redactKey(err.Error(), sel.Credential)
		logger.Error("Gemini generateContent failed", "error", detail)
		return providers.RawPayload{}, providers.NewError(providers.KindProviderFailure, p.Kind(), detail, err)
	}
	return providers.StringPayload(out), nil
}

func (p *Client) generate(ctx context.Context, apiKey, model, text string) (string, error) {
	data, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s%s:generateContent", p.baseURL, model)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("x-goog-api-key", apiKey)

	resp, err := p.client.Do(hreq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("google api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gresp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gresp); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	return gresp.text()
}
