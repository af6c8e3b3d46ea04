// Package radarr is a thin typed HTTP client for the Radarr v3 API
// operations the Download Coordinator needs: looking up a library
// movie's on-disk folder and (optionally) triggering a search.
package radarr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vmunix/felscan/internal/httpx"
	"github.com/vmunix/felscan/internal/svcerr"
)

const serviceName = "radarr"

// Client is a keep-alive HTTP client for one Radarr instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Radarr client bound to baseURL, authenticating with
// apiKey via the X-Api-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpx.NewClient(httpx.Options{}),
	}
}

type movie struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Year            int    `json:"year"`
	Path            string `json:"path"`
	QualityProfileID int   `json:"qualityProfileId"`
}

// Movie is the subset of Radarr's movie resource the coordinator
// needs to build a Pending Download.
type Movie struct {
	ID               int
	Title            string
	Year             int
	Folder           string
	QualityProfileID int
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, svcerr.Transport(serviceName, err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, svcerr.Protocol(serviceName, resp.StatusCode, string(body))
	}
	return resp, nil
}

// FindByTitleYear looks up a movie in Radarr's library by title and
// year, resolving its on-disk folder and quality profile in one
// round trip. Returns svcerr.NotFound when no movie matches.
func (c *Client) FindByTitleYear(ctx context.Context, title string, year int) (Movie, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v3/movie", nil)
	if err != nil {
		return Movie{}, err
	}
	defer resp.Body.Close()

	var movies []movie
	if err := json.NewDecoder(resp.Body).Decode(&movies); err != nil {
		return Movie{}, svcerr.Malformed(serviceName, err)
	}

	for _, m := range movies {
		if m.Title == title && (year == 0 || m.Year == year) {
			return Movie{ID: m.ID, Title: m.Title, Year: m.Year, Folder: m.Path, QualityProfileID: m.QualityProfileID}, nil
		}
	}
	return Movie{}, svcerr.NotFound(fmt.Sprintf("movie:%s (%d)", title, year))
}

// TriggerSearch requests Radarr search for a movie's releases. Nothing
// in this module calls it: the discovery pipeline dispatches via
// qBittorrent directly, and the control-plane API has no search route.
func (c *Client) TriggerSearch(ctx context.Context, movieID int) error {
	body := fmt.Sprintf(`{"name":"MoviesSearch","movieIds":[%s]}`, strconv.Itoa(movieID))
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return svcerr.Malformed(serviceName, err)
	}
	u.Path = "/api/v3/command"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(body))
	if err != nil {
		return svcerr.Malformed(serviceName, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return svcerr.Transport(serviceName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return svcerr.Protocol(serviceName, resp.StatusCode, string(b))
	}
	return nil
}
