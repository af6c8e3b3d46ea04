package tracker

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vmunix/felscan/internal/httpx"
	"github.com/vmunix/felscan/internal/svcerr"
)

const serviceName = "tracker"

// rawRecord is the wire shape the feed endpoint returns: a JSON array
// of release records.
type rawRecord struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"magnet_or_url"`
	Timestamp  int64  `json:"timestamp"`
}

// HTTPClient polls a single JSON endpoint that returns the tracker's
// current release snapshot. It is one concrete Feed implementation;
// the core depends only on the Feed interface, so swapping in a
// different scraper never touches internal/coordinator or
// internal/monitor.
type HTTPClient struct {
	url        string
	httpClient *http.Client
}

// New creates a tracker client polling url for a JSON array of
// release records.
func New(url string) *HTTPClient {
	return &HTTPClient{
		url:        url,
		httpClient: httpx.NewClient(httpx.Options{}),
	}
}

// Poll fetches the current release snapshot.
func (c *HTTPClient) Poll(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, svcerr.Transport(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, svcerr.Protocol(serviceName, resp.StatusCode, "")
	}

	var raw []rawRecord
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}

	records := make([]Record, len(raw))
	for i, r := range raw {
		records[i] = Record{
			Identifier:    r.Identifier,
			Title:         r.Title,
			MagnetOrURL:   r.URL,
			TimestampUnix: r.Timestamp,
		}
	}
	return records, nil
}
