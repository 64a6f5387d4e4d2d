// Package ocr extracts text from screenshot images via an external
// OCR provider.
package ocr

import (
	"context"
	"strings"
)

// Request names the image to process. Exactly one of FilePath or URL
// should be set; FilePath wins when both are present.
type Request struct {
	FilePath string
	URL      string
}

// Client extracts raw text from an image.
type Client interface {
	Extract(ctx context.Context, req Request) (string, error)
}

// ProviderError is a failure reported by the OCR provider itself, as
// opposed to a transport failure. Permanent errors (bad API key, quota
// exhausted) must not be retried.
type ProviderError struct {
	Message   string
	Permanent bool
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsPermanent reports whether err is a provider error that retrying
// cannot fix.
func IsPermanent(err error) bool {
	pe, ok := err.(*ProviderError)
	return ok && pe.Permanent
}

// permanentMessage classifies provider error text. Messages mentioning
// the API key or API access describe account problems, not transient
// processing failures.
func permanentMessage(msg string) bool {
	return strings.Contains(strings.ToUpper(msg), "API")
}
