package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"livereport-bot/core/config"
	"livereport-bot/core/logger"
)

// spaceClient talks to the OCR.Space parse endpoint.
type spaceClient struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewSpaceClient builds a Client for OCR.Space from the loaded configuration.
func NewSpaceClient(cfg config.OCRConfig) Client {
	return &spaceClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: cfg.Timeout()},
	}
}

// spaceResponse mirrors the provider's JSON envelope. ErrorMessage is
// sometimes a string and sometimes an array of strings, so it is decoded
// lazily.
type spaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

func (r *spaceResponse) errorText() string {
	if len(r.ErrorMessage) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(r.ErrorMessage, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(r.ErrorMessage, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return string(r.ErrorMessage)
}

func (c *spaceClient) Extract(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", &ProviderError{Message: "OCR API key is not configured", Permanent: true}
	}

	body, contentType, err := c.buildForm(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build OCR request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call OCR provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR provider returned status %d", resp.StatusCode)
	}

	var parsed spaceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode OCR response: %w", err)
	}

	if parsed.IsErroredOnProcessing || parsed.OCRExitCode != 1 {
		msg := parsed.errorText()
		if msg == "" {
			msg = fmt.Sprintf("OCR processing failed with exit code %d", parsed.OCRExitCode)
		}
		return "", &ProviderError{Message: msg, Permanent: permanentMessage(msg)}
	}
	if len(parsed.ParsedResults) == 0 {
		return "", &ProviderError{Message: "OCR returned no parsed results"}
	}

	logger.Debug(ctx, "ocr", "ocr.extracted",
		slog.String("status", "ok"),
		slog.Int("chars", len(parsed.ParsedResults[0].ParsedText)),
		slog.Duration("took", logger.Took(start)),
	)
	return parsed.ParsedResults[0].ParsedText, nil
}

// buildForm assembles the multipart request body. OCREngine 2 handles
// the dense numeric overlays in livestream dashboards better than the
// default engine.
func (c *spaceClient) buildForm(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"apikey":            c.apiKey,
		"language":          "eng",
		"isOverlayRequired": "false",
		"detectOrientation": "true",
		"scale":             "true",
		"OCREngine":         "2",
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write OCR form field %s: %w", name, err)
		}
	}

	switch {
	case req.FilePath != "":
		f, err := os.Open(req.FilePath)
		if err != nil {
			return nil, "", fmt.Errorf("open screenshot: %w", err)
		}
		defer func() { _ = f.Close() }()

		part, err := w.CreateFormFile("file", filepath.Base(req.FilePath))
		if err != nil {
			return nil, "", fmt.Errorf("create OCR form file: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("copy screenshot into form: %w", err)
		}
	case req.URL != "":
		if err := w.WriteField("url", req.URL); err != nil {
			return nil, "", fmt.Errorf("write OCR url field: %w", err)
		}
	default:
		return nil, "", fmt.Errorf("ocr request needs a file path or url")
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize OCR form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
