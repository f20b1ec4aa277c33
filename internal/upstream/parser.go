// Package upstream calls generation backends and normalizes their replies
// into a single inline-image result.
package upstream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/tidwall/gjson"
)

// InlineImage is a base64-encoded generated image with its MIME type.
type InlineImage struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ErrNoImage reports an upstream reply that carried no extractable image.
var ErrNoImage = errors.New("upstream: no image in response")

// streamDoneSentinel terminates an event stream.
const streamDoneSentinel = "[DONE]"

// ExtractInlineImage walks a provider-defined JSON document for the first
// inline image: first candidate, its content parts, first part whose
// inlineData carries string mimeType and data fields. Every nesting level
// tolerates absence or wrong shape and falls through to no match.
func ExtractInlineImage(doc gjson.Result) (InlineImage, bool) {
	candidates := doc.Get("candidates")
	if !candidates.IsArray() {
		return InlineImage{}, false
	}
	entries := candidates.Array()
	if len(entries) == 0 {
		return InlineImage{}, false
	}

	parts := entries[0].Get("content.parts")
	if !parts.IsArray() {
		return InlineImage{}, false
	}
	for _, part := range parts.Array() {
		mimeType := part.Get("inlineData.mimeType")
		data := part.Get("inlineData.data")
		if mimeType.Type != gjson.String || data.Type != gjson.String {
			continue
		}
		return InlineImage{MimeType: mimeType.String(), Data: data.String()}, true
	}
	return InlineImage{}, false
}

// ParseResponse normalizes an upstream HTTP reply into an inline image. Event
// streams and plain text are scanned line by line for data: payloads, first
// successful extraction wins and malformed lines are skipped; any other
// content type is parsed as a single JSON document. A non-success status maps
// to an upstream error carrying the best-effort message from a conventional
// {error:{message}} envelope.
func ParseResponse(status int, contentType string, body []byte) (InlineImage, error) {
	if status < 200 || status >= 300 {
		message := gjson.GetBytes(body, "error.message").String()
		if message == "" {
			message = fmt.Sprintf("upstream error: status %d", status)
		}
		return InlineImage{}, httperr.New(status, message)
	}

	if strings.Contains(contentType, "text/event-stream") || strings.Contains(contentType, "text/plain") {
		for _, line := range strings.Split(string(body), "\n") {
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
			if payload == "" || payload == streamDoneSentinel {
				continue
			}
			if !gjson.Valid(payload) {
				continue
			}
			if image, ok := ExtractInlineImage(gjson.Parse(payload)); ok {
				return image, nil
			}
		}
		return InlineImage{}, ErrNoImage
	}

	if image, ok := ExtractInlineImage(gjson.ParseBytes(body)); ok {
		return image, nil
	}
	return InlineImage{}, ErrNoImage
}
