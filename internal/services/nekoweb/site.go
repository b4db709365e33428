package nekoweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// siteResponse is the wire shape of /site/info. Timestamps are epoch
// milliseconds.
type siteResponse struct {
	Domain    string `json:"domain"`
	Updates   uint64 `json:"updates"`
	Followers uint64 `json:"followers"`
	Views     uint64 `json:"views"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Site is a snapshot of a hosted site's public metadata.
type Site struct {
	Domain    string
	Updates   uint64
	Followers uint64
	Views     uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnmarshalJSON decodes the API shape, converting millisecond timestamps.
func (s *Site) UnmarshalJSON(data []byte) error {
	var raw siteResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Site{
		Domain:    raw.Domain,
		Updates:   raw.Updates,
		Followers: raw.Followers,
		Views:     raw.Views,
		CreatedAt: time.UnixMilli(raw.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(raw.UpdatedAt).UTC(),
	}
	return nil
}

// MarshalJSON encodes the site back into the API shape.
func (s Site) MarshalJSON() ([]byte, error) {
	return json.Marshal(siteResponse{
		Domain:    s.Domain,
		Updates:   s.Updates,
		Followers: s.Followers,
		Views:     s.Views,
		CreatedAt: s.CreatedAt.UnixMilli(),
		UpdatedAt: s.UpdatedAt.UnixMilli(),
	})
}

func decodeSite(resp *Response) (*Site, error) {
	var site Site
	if err := decodeJSON(resp, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// GetSite fetches public info for username's site. username must not be
// empty: only an AuthClient can look up its own site.
func (c *Client) GetSite(ctx context.Context, username string) (*Site, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	resp, err := c.get(ctx, "/site/info/"+url.PathEscape(username))
	if err != nil {
		return nil, fmt.Errorf("error getting site info for %s: %w", username, err)
	}
	return decodeSite(resp)
}

// GetSite fetches site info for username, or for the key owner's own site
// when username is empty.
func (c *AuthClient) GetSite(ctx context.Context, username string) (*Site, error) {
	path := "/site/info"
	if username != "" {
		path += "/" + url.PathEscape(username)
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("error getting site info: %w", err)
	}
	return decodeSite(resp)
}

// Limit is one rate-limit bucket. Reset is epoch milliseconds, or -1 when
// the window has not started.
type Limit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// ResetAt returns when the bucket refills. ok is false if it has not been
// used in the current window.
func (l Limit) ResetAt() (t time.Time, ok bool) {
	if l.Reset < 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(l.Reset).UTC(), true
}

// Limits are the upload limits of the key owner.
type Limits struct {
	General    Limit `json:"general"`
	BigUploads Limit `json:"big_uploads"`
	Zip        Limit `json:"zip"`
}

// GetLimits returns the current upload limits.
func (c *AuthClient) GetLimits(ctx context.Context) (*Limits, error) {
	resp, err := c.get(ctx, "/files/limits")
	if err != nil {
		return nil, fmt.Errorf("error getting limits: %w", err)
	}

	var limits Limits
	if err := decodeJSON(resp, &limits); err != nil {
		return nil, fmt.Errorf("error getting limits: %w", err)
	}
	return &limits, nil
}
