// Package plexclient is a thin typed HTTP client for the Plex Media
// Server endpoints the core depends on: library listing, per-item
// metadata, and collection membership mutation.
package plexclient

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vmunix/felscan/internal/httpx"
	"github.com/vmunix/felscan/internal/svcerr"
)

const serviceName = "plex"

// Client is a keep-alive HTTP client for one Plex server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Plex client bound to baseURL, authenticating with
// token via the X-Plex-Token header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpx.NewClient(httpx.Options{}),
	}
}

// mediaContainer is the root XML element Plex wraps every response in.
type mediaContainer struct {
	XMLName xml.Name `xml:"MediaContainer"`
	Videos  []video  `xml:"Video"`
}

type video struct {
	RatingKey             string  `xml:"ratingKey,attr"`
	Title                 string  `xml:"title,attr"`
	Year                  int     `xml:"year,attr"`
	OriginallyAvailableAt string  `xml:"originallyAvailableAt,attr"`
	Media                 []media `xml:"Media"`
}

type media struct {
	Parts []part `xml:"Part"`
}

type part struct {
	Size    int64    `xml:"size,attr"`
	Streams []stream `xml:"Stream"`
}

type stream struct {
	StreamType            int    `xml:"streamType,attr"` // 1=video, 2=audio
	Codec                 string `xml:"codec,attr"`
	Bitrate               int    `xml:"bitrate,attr"`
	DOVIProfile           string `xml:"DOVIProfile,attr"`
	DOVIBLPresent         string `xml:"DOVIBLPresent,attr"`
	DOVIELPresent         string `xml:"DOVIELPresent,attr"`
	Title                 string `xml:"title,attr"`
	DisplayTitle          string `xml:"displayTitle,attr"`
	ExtendedDisplayTitle  string `xml:"extendedDisplayTitle,attr"`
	AudioChannelLayout    string `xml:"audioChannelLayout,attr"`
}

// LibraryItem is one row of a section listing: just enough to drive
// the extractor's per-item fetch loop.
type LibraryItem struct {
	RatingKey string
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}
	u.Path = path
	if query == nil {
		query = url.Values{}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

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

// ListSection returns every rating_key in the configured library
// section in a single request.
func (c *Client) ListSection(ctx context.Context, section string) ([]LibraryItem, error) {
	resp, err := c.do(ctx, http.MethodGet, "/library/sections/"+url.PathEscape(section)+"/all", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var container mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}

	items := make([]LibraryItem, 0, len(container.Videos))
	for _, v := range container.Videos {
		items = append(items, LibraryItem{RatingKey: v.RatingKey})
	}
	return items, nil
}

// ItemMetadata is the normalized per-item result the extractor
// upserts as a Capability Record.
type ItemMetadata struct {
	RatingKey    string
	Title        string
	Year         int
	DVProfile    string // "" when not present
	DVFEL        bool
	HasAtmos     bool
	FileSize     int64
	VideoBitrate float64 // Mbps
	AudioTracks  string
}

// GetItemMetadata fetches and parses /library/metadata/{ratingKey}.
func (c *Client) GetItemMetadata(ctx context.Context, ratingKey string) (ItemMetadata, error) {
	resp, err := c.do(ctx, http.MethodGet, "/library/metadata/"+url.PathEscape(ratingKey), nil)
	if err != nil {
		return ItemMetadata{}, err
	}
	defer resp.Body.Close()

	var container mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return ItemMetadata{}, svcerr.Malformed(serviceName, err)
	}
	if len(container.Videos) == 0 {
		return ItemMetadata{}, svcerr.NotFound("rating_key:" + ratingKey)
	}

	return parseVideo(container.Videos[0]), nil
}

func parseVideo(v video) ItemMetadata {
	m := ItemMetadata{
		RatingKey: v.RatingKey,
		Title:     v.Title,
		Year:      v.Year,
	}
	if m.Year == 0 && len(v.OriginallyAvailableAt) >= 4 {
		if y, err := strconv.Atoi(v.OriginallyAvailableAt[:4]); err == nil {
			m.Year = y
		}
	}

	if len(v.Media) == 0 {
		return m
	}
	// Tie-break: first <Media> element in document order, first
	// matching <Part>/<Stream> within it for each field.
	firstMedia := v.Media[0]

	var blPresent, elPresent bool
	for _, p := range firstMedia.Parts {
		if m.FileSize == 0 && p.Size > 0 {
			m.FileSize = p.Size
		}
		for _, s := range p.Streams {
			if s.StreamType == 1 { // video
				if m.DVProfile == "" && s.DOVIProfile != "" {
					m.DVProfile = s.DOVIProfile
					blPresent = s.DOVIBLPresent == "1"
					elPresent = s.DOVIELPresent == "1"
				}
				if m.VideoBitrate == 0 && s.Bitrate > 0 {
					m.VideoBitrate = roundToOneDecimal(float64(s.Bitrate) / 1000.0)
				}
			}
			if s.StreamType == 2 && isTrueHDAtmos(s) { // audio
				m.HasAtmos = true
				m.AudioTracks = s.DisplayTitle
			}
		}
	}
	m.DVFEL = m.DVProfile == "7" && blPresent && elPresent
	return m
}

func isTrueHDAtmos(s stream) bool {
	if s.Codec != "truehd" {
		return false
	}
	for _, field := range []string{s.Title, s.DisplayTitle, s.ExtendedDisplayTitle, s.AudioChannelLayout} {
		if strings.Contains(strings.ToLower(field), "atmos") {
			return true
		}
	}
	return false
}

func roundToOneDecimal(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// CollectionMember returns every rating_key currently in the named
// collection, used by the Reconciler's current-set computation.
func (c *Client) CollectionMember(ctx context.Context, collection string) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/library/collections/"+url.PathEscape(collection)+"/children", nil)
	if err != nil {
		if svcerr.IsProtocol(err) {
			return nil, nil // collection does not exist yet
		}
		return nil, err
	}
	defer resp.Body.Close()

	var container mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}

	keys := make([]string, 0, len(container.Videos))
	for _, v := range container.Videos {
		keys = append(keys, v.RatingKey)
	}
	return keys, nil
}

// AddToCollection adds ratingKey to collection, creating the
// collection if it does not already exist.
func (c *Client) AddToCollection(ctx context.Context, collection, ratingKey string) error {
	path := fmt.Sprintf("/library/collections/%s/items", url.PathEscape(collection))
	resp, err := c.do(ctx, http.MethodPut, path, url.Values{"ratingKey": {ratingKey}})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// RemoveFromCollection removes ratingKey from collection.
func (c *Client) RemoveFromCollection(ctx context.Context, collection, ratingKey string) error {
	path := fmt.Sprintf("/library/collections/%s/items/%s", url.PathEscape(collection), url.PathEscape(ratingKey))
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
