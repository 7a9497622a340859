// Package offerparser calls the external document parser that extracts an
// offer from an uploaded file.
package offerparser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kasap-ot/thesis-project/internal/offer"
)

// Client calls the parser microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a parser client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // document parsing can take time
		},
	}
}

type parsedOffer struct {
	Salary           int    `json:"salary"`
	NumWeeks         int    `json:"num_weeks"`
	Field            string `json:"field"`
	Deadline         string `json:"deadline"`
	Requirements     string `json:"requirements"`
	Responsibilities string `json:"responsibilities"`
	Region           string `json:"region"`
}

// Parse uploads the document and maps the parser's answer onto a draft.
func (c *Client) Parse(ctx context.Context, filename string, data []byte) (offer.Draft, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return offer.Draft{}, fmt.Errorf("offerparser: create form file failed: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return offer.Draft{}, fmt.Errorf("offerparser: write file failed: %w", err)
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/parse", &buf)
	if err != nil {
		return offer.Draft{}, fmt.Errorf("offerparser: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return offer.Draft{}, fmt.Errorf("offerparser: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return offer.Draft{}, fmt.Errorf("offerparser: parse failed (%d): %s", resp.StatusCode, string(body))
	}

	var out parsedOffer
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return offer.Draft{}, fmt.Errorf("offerparser: decode response failed: %w", err)
	}
	return out.draft()
}

func (p parsedOffer) draft() (offer.Draft, error) {
	deadline, err := time.Parse("2006-01-02", p.Deadline)
	if err != nil {
		return offer.Draft{}, fmt.Errorf("offerparser: bad deadline %q: %w", p.Deadline, err)
	}
	region := offer.RegionGlobal
	if p.Region != "" {
		if region, err = offer.ParseRegion(p.Region); err != nil {
			return offer.Draft{}, fmt.Errorf("offerparser: %w", err)
		}
	}
	return offer.Draft{
		Salary:           p.Salary,
		NumWeeks:         p.NumWeeks,
		Field:            p.Field,
		Deadline:         deadline,
		Requirements:     p.Requirements,
		Responsibilities: p.Responsibilities,
		Region:           region,
	}, nil
}

// Health checks if the parser service is available.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("offerparser: health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("offerparser: unhealthy: %s", resp.Status)
	}
	return nil
}
