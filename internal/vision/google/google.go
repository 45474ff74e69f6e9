package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"

	ports "tippool/internal/vision"
)

// Client extracts timesheet text through the Google Cloud Vision API
// using DOCUMENT_TEXT_DETECTION, which handles dense handwritten and
// printed tables better than plain text detection.
type Client struct {
	svc *gvision.Service
}

// Ensure interface conformance
var _ ports.TextExtractor = (*Client)(nil)

// NewFromEnv creates a Vision client from environment credentials.
// Optional: GOOGLE_SERVICE_ACCOUNT_JSON (inline) or
// GOOGLE_SERVICE_ACCOUNT_FILE (path); falls back to Application
// Default Credentials when neither is set.
func NewFromEnv(ctx context.Context) (*Client, error) {
	var opts []goption.ClientOption

	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		opts = append(opts, goption.WithCredentialsJSON([]byte(inline)))
	} else if file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")); file != "" {
		opts = append(opts, goption.WithCredentialsFile(file))
	}

	svc, err := gvision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// ExtractText runs document text detection over the image bytes and
// returns the full detected text.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image: &gvision.Image{
				Content: base64.StdEncoding.EncodeToString(image),
			},
			Features: []*gvision.Feature{{
				Type: "DOCUMENT_TEXT_DETECTION",
			}},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", errors.New("vision API returned no responses")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision API error: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	if r.FullTextAnnotation == nil || r.FullTextAnnotation.Text == "" {
		slog.WarnContext(ctx, "Vision API found no text in image", "image_bytes", len(image))
		return "", nil
	}

	slog.InfoContext(ctx, "Extracted text from image",
		"image_bytes", len(image),
		"text_length", len(r.FullTextAnnotation.Text))

	return r.FullTextAnnotation.Text, nil
}
