package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DirectoryClient talks to the board directory of a relay.
type DirectoryClient struct {
	base string
	http *http.Client
}

// NewDirectoryClient accepts either the relay's websocket URL or its HTTP
// base URL.
func NewDirectoryClient(relay string) (*DirectoryClient, error) {
	u, err := url.Parse(relay)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws")
	u.RawQuery = ""
	return &DirectoryClient{base: u.String(), http: &http.Client{Timeout: 10 * time.Second}}, nil
}

func (c *DirectoryClient) List(ctx context.Context) ([]Board, error) {
	var resp struct {
		Boards []Board `json:"boards"`
	}
	if err := c.do(ctx, http.MethodGet, nil, &resp); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return resp.Boards, nil
}

func (c *DirectoryClient) Create(ctx context.Context, title string) (Board, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return Board{}, err
	}
	var resp struct {
		Board Board `json:"board"`
	}
	if err := c.do(ctx, http.MethodPost, body, &resp); err != nil {
		return Board{}, fmt.Errorf("create board: %w", err)
	}
	return resp.Board, nil
}

func (c *DirectoryClient) do(ctx context.Context, method string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+"/boards", bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %s", res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
