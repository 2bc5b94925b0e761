// Package postcode resolves UK postcodes to council and region names through
// the postcodes.io public API. Resolution is best effort: every failure mode
// degrades to "no match" so a broken lookup can never fail an estimate.
package postcode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public postcodes.io endpoint.
const DefaultBaseURL = "https://api.postcodes.io"

// DefaultTimeout bounds a lookup; after it elapses a no-match is assumed.
const DefaultTimeout = 8 * time.Second

// Client is a postcodes.io lookup client.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client against the public API with the default timeout.
func NewClient() *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

type lookupResponse struct {
	Result struct {
		Postcode      string `json:"postcode"`
		AdminDistrict string `json:"admin_district"`
		Region        string `json:"region"`
		Country       string `json:"country"`
	} `json:"result"`
}

// Resolve looks up a postcode and returns the council (admin district) and
// region names. ok is false on empty input, transport errors, non-200
// responses and undecodable bodies.
func (c *Client) Resolve(ctx context.Context, postcode string) (council, region string, ok bool) {
	trimmed := strings.TrimSpace(postcode)
	if trimmed == "" {
		return "", "", false
	}

	endpoint := c.BaseURL + "/postcodes/" + url.PathEscape(trimmed)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", false
	}
	req.Header.Set("User-Agent", "taxgo/0.1")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", false
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", false
	}
	return payload.Result.AdminDistrict, payload.Result.Region, true
}
