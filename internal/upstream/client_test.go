package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixelwork/pixelwork/internal/models"
	"gorm.io/datatypes"
)

func TestClient_Generate(t *testing.T) {
	var captured struct {
		path    string
		auth    string
		goog    string
		extra   string
		payload map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.goog = r.Header.Get("x-goog-api-key")
		captured.extra = r.Header.Get("X-Region")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured.payload)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`))
	}))
	defer server.Close()

	provider := &models.ApiProvider{
		Name:    "nb",
		ModelID: "gemini-image-1",
		BaseURL: server.URL + "/",
		APIKey:  "sk-test",
		Headers: datatypes.JSON([]byte(`{"X-Region":"eu"}`)),
	}

	image, errGenerate := NewClient().Generate(context.Background(), provider, GenerateInput{
		Prompt:      "cat",
		AspectRatio: "1:1",
	})
	if errGenerate != nil {
		t.Fatalf("generate: %v", errGenerate)
	}
	if image.MimeType != "image/png" || image.Data != "QUJD" {
		t.Fatalf("unexpected image %+v", image)
	}

	if captured.path != "/v1beta/models/gemini-image-1:generateContent" {
		t.Fatalf("unexpected path %q", captured.path)
	}
	if captured.auth != "Bearer sk-test" || captured.goog != "sk-test" {
		t.Fatalf("unexpected auth headers %q %q", captured.auth, captured.goog)
	}
	if captured.extra != "eu" {
		t.Fatalf("expected extra provider header applied, got %q", captured.extra)
	}
	if _, hasConfig := captured.payload["generationConfig"]; !hasConfig {
		t.Fatalf("expected generationConfig in payload %v", captured.payload)
	}
}

func TestClient_Generate_EventStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"candidates\":[]}\n" +
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"inlineData\":{\"mimeType\":\"image/png\",\"data\":\"BB==\"}}]}}]}\n" +
			"data: [DONE]\n"))
	}))
	defer server.Close()

	provider := &models.ApiProvider{Name: "nb", ModelID: "m1", BaseURL: server.URL, APIKey: "k"}
	image, errGenerate := NewClient().Generate(context.Background(), provider, GenerateInput{Prompt: "cat"})
	if errGenerate != nil {
		t.Fatalf("generate: %v", errGenerate)
	}
	if image.Data != "BB==" {
		t.Fatalf("unexpected image %+v", image)
	}
}

func TestClient_Generate_UpstreamErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"backend down"}}`))
	}))
	defer server.Close()

	provider := &models.ApiProvider{Name: "nb", ModelID: "m1", BaseURL: server.URL, APIKey: "k"}
	_, errGenerate := NewClient().Generate(context.Background(), provider, GenerateInput{Prompt: "cat"})
	if errGenerate == nil || errGenerate.Error() != "backend down" {
		t.Fatalf("expected upstream message surfaced, got %v", errGenerate)
	}
}
