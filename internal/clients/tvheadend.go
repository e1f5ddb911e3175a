package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

const channelGridPath = "/api/channel/grid"

// TVHeadendClient reads the receiver's channel directory so station numbers
// can be matched to receiver channel names.
type TVHeadendClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

func NewTVHeadendClient(baseURL, username, password string) *TVHeadendClient {
	return &TVHeadendClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type channelEntry struct {
	Name   string      `json:"name"`
	Number json.Number `json:"number"`
}

type channelList struct {
	Entries []channelEntry `json:"entries"`
}

// Aliases returns the receiver's enabled channels as a number-to-name map.
// Numbers are matched by their exact string rendering.
func (c *TVHeadendClient) Aliases(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("all", "1")
	query.Set("limit", "999999999")
	query.Set("sort", "name")
	query.Set("filter", `[{"type":"boolean","value":true,"field":"enabled"}]`)

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, channelGridPath, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building channel list request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching channel list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("did not receive a 200 OK status, received %d", resp.StatusCode)
	}

	var channels channelList
	if err := json.NewDecoder(resp.Body).Decode(&channels); err != nil {
		return nil, fmt.Errorf("decoding channel list: %w", err)
	}

	aliases := make(map[string]string, len(channels.Entries))
	for _, entry := range channels.Entries {
		aliases[entry.Number.String()] = entry.Name
	}

	log.WithFields(log.Fields{
		"receiver": c.baseURL,
		"channels": len(aliases),
	}).Info("receiver channels found")
	return aliases, nil
}
