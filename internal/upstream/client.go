package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pixelwork/pixelwork/internal/models"
)

// GenerateInput describes one image-generation request.
type GenerateInput struct {
	Prompt      string
	InputImage  *InlineImage
	AspectRatio string
	ImageSize   string
}

// Client forwards generation requests to a provider's generateContent
// endpoint. Calls block for the duration of generation; cancellation comes
// from the request context and no retries are applied.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a Client.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// requestPart is one element of the upstream contents array.
type requestPart struct {
	Text       string       `json:"text,omitempty"`
	InlineData *InlineImage `json:"inlineData,omitempty"`
}

// Generate performs one generation call against the provider and returns the
// normalized inline image.
func (c *Client) Generate(ctx context.Context, provider *models.ApiProvider, input GenerateInput) (InlineImage, error) {
	parts := make([]requestPart, 0, 2)
	if input.Prompt != "" {
		parts = append(parts, requestPart{Text: input.Prompt})
	}
	if input.InputImage != nil {
		parts = append(parts, requestPart{InlineData: input.InputImage})
	}

	generationConfig := map[string]any{
		"responseModalities": []string{"Text", "Image"},
	}
	if input.AspectRatio != "" || input.ImageSize != "" {
		imageConfig := map[string]any{}
		if input.AspectRatio != "" {
			imageConfig["aspectRatio"] = input.AspectRatio
		}
		if input.ImageSize != "" {
			imageConfig["imageSize"] = input.ImageSize
		}
		generationConfig["imageConfig"] = imageConfig
	}

	payload, errMarshal := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": parts},
		},
		"generationConfig": generationConfig,
	})
	if errMarshal != nil {
		return InlineImage{}, fmt.Errorf("upstream: marshal request: %w", errMarshal)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(provider.BaseURL), "/") +
		"/v1beta/models/" + url.PathEscape(provider.ModelID) + ":generateContent"

	req, errRequest := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if errRequest != nil {
		return InlineImage{}, fmt.Errorf("upstream: build request: %w", errRequest)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+provider.APIKey)
	req.Header.Set("x-goog-api-key", provider.APIKey)
	applyExtraHeaders(req, provider.Headers)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return InlineImage{}, fmt.Errorf("upstream: request failed: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return InlineImage{}, fmt.Errorf("upstream: read response: %w", errRead)
	}
	return ParseResponse(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

// applyExtraHeaders sets provider-configured headers on the request. An
// unparsable headers blob is ignored rather than failing the call.
func applyExtraHeaders(req *http.Request, raw []byte) {
	if len(raw) == 0 {
		return
	}
	var headers map[string]string
	if errUnmarshal := json.Unmarshal(raw, &headers); errUnmarshal != nil {
		return
	}
	for name, value := range headers {
		if strings.TrimSpace(name) == "" {
			continue
		}
		req.Header.Set(name, value)
	}
}
