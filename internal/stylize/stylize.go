// Package stylize is the image-stylization backend adapter. Without a
// configured endpoint it is an explicit pass-through: the input image comes
// back unchanged, and callers know that from Configured rather than from a
// success that did nothing.
package stylize

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Styles lists the accepted style tokens.
var Styles = []string{"disney", "pixar", "anime"}

// ValidStyle reports whether s is an accepted style token.
func ValidStyle(s string) bool {
	for _, v := range Styles {
		if s == v {
			return true
		}
	}
	return false
}

// RequestTimeout bounds a single stylize call.
const RequestTimeout = 60 * time.Second

// Client calls an HTTP stylization endpoint, or passes images through
// unchanged when no endpoint is configured.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the given endpoint. Empty endpoint means
// pass-through mode.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: RequestTimeout},
	}
}

// Configured reports whether a real backend is wired up.
func (c *Client) Configured() bool { return c.endpoint != "" }

// Stylize transforms the image with the given style token. In pass-through
// mode the input bytes are returned as-is.
func (c *Client) Stylize(ctx context.Context, image []byte, style string) ([]byte, error) {
	if !ValidStyle(style) {
		return nil, fmt.Errorf("unknown style %q", style)
	}
	if !c.Configured() {
		return image, nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if err := mw.WriteField("style", style); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling stylize backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stylize backend HTTP %d: %s", resp.StatusCode, string(raw))
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading stylized image: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("stylize backend returned an empty image")
	}
	return out, nil
}
