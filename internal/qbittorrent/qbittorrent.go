// Package qbittorrent is a thin typed HTTP client for the qBittorrent
// Web API v2 operations the Download Coordinator needs: optional
// login and adding a torrent to a target folder/category.
package qbittorrent

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"github.com/vmunix/felscan/internal/httpx"
	"github.com/vmunix/felscan/internal/svcerr"
)

const serviceName = "qbittorrent"

// Client is a keep-alive HTTP client for one qBittorrent instance.
// The session cookie (SID) is held by the client's cookie jar.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// New creates a qBittorrent client. Empty username/password means LAN
// mode: no login call is made before the first request.
func New(baseURL, username, password string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}
	c := httpx.NewClient(httpx.Options{})
	c.Jar = jar
	return &Client{baseURL: baseURL, username: username, password: password, httpClient: c}, nil
}

// Login authenticates and stores the SID cookie. A no-op in LAN mode
// (empty credentials).
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" && c.password == "" {
		return nil
	}
	form := url.Values{"username": {c.username}, "password": {c.password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", nil)
	if err != nil {
		return svcerr.Malformed(serviceName, err)
	}
	req.URL.RawQuery = form.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return svcerr.Transport(serviceName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return svcerr.Protocol(serviceName, resp.StatusCode, string(body))
	}
	return nil
}

// AddTorrentRequest carries the form fields qBittorrent's
// /api/v2/torrents/add expects.
type AddTorrentRequest struct {
	URL                string // magnet or http(s) URL
	SavePath           string
	Category           string
	Paused             bool
	SequentialDownload bool
}

// AddTorrent adds a torrent, retrying once on a transport failure.
// This is the only outbound client that retries internally; every
// other service client surfaces a transport error straight to its
// caller.
func (c *Client) AddTorrent(ctx context.Context, req AddTorrentRequest) error {
	err := c.addTorrentOnce(ctx, req)
	if err != nil && svcerr.IsTransport(err) {
		err = c.addTorrentOnce(ctx, req)
	}
	return err
}

func (c *Client) addTorrentOnce(ctx context.Context, r AddTorrentRequest) error {
	form := url.Values{
		"urls":               {r.URL},
		"savepath":           {r.SavePath},
		"category":           {r.Category},
		"paused":             {strconv.FormatBool(r.Paused)},
		"sequentialDownload": {strconv.FormatBool(r.SequentialDownload)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/torrents/add", nil)
	if err != nil {
		return svcerr.Malformed(serviceName, err)
	}
	httpReq.URL.RawQuery = form.Encode()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return svcerr.Transport(serviceName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return svcerr.Protocol(serviceName, resp.StatusCode, string(body))
	}
	return nil
}

// TorrentInfo is one row of /api/v2/torrents/info. This client has no
// method that fetches it, and nothing in this module uses it.
type TorrentInfo struct {
	Hash     string
	Name     string
	Progress float64
	State    string
}
