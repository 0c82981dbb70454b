package episode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrSeriesNotFound is returned when a series search has no exact name match.
var ErrSeriesNotFound = errors.New("series not found")

// Lookup finds the episodes of a series matching a name or air date.
type Lookup interface {
	Refresh(ctx context.Context) error
	FindEpisodes(ctx context.Context, series, name, airDate string) ([]Episode, error)
}

// TVDBSettings holds the credentials and locations for the TVDB client.
type TVDBSettings struct {
	APIKey      string
	Username    string
	UserKey     string
	BaseURL     string
	Language    string
	SeriesCache string // JSON file of series name -> id; empty disables
	Timeout     time.Duration
}

// Client talks to the TVDB v2 JSON API with a refreshed JWT session.
type Client struct {
	settings   TVDBSettings
	httpClient *http.Client

	mu     sync.Mutex
	token  string
	series map[string]int64
}

var _ Lookup = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a TVDB client and loads the series cache.
func NewClient(settings TVDBSettings, opts ...Option) (*Client, error) {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	if settings.APIKey == "" {
		return nil, errors.New("tvdb api key required")
	}
	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	if settings.BaseURL == "" {
		return nil, errors.New("tvdb base url required")
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
		series:     map[string]int64{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if err := client.readCache(); err != nil {
		return nil, err
	}
	return client, nil
}

type tokenResponse struct {
	Token string `json:"token"`
}

type seriesSearchResponse struct {
	Data []struct {
		ID         int64  `json:"id"`
		SeriesName string `json:"seriesName"`
	} `json:"data"`
}

type tvdbEpisode struct {
	ID                 int64  `json:"id"`
	EpisodeName        string `json:"episodeName"`
	Overview           string `json:"overview"`
	FirstAired         string `json:"firstAired"`
	AiredSeason        int    `json:"airedSeason"`
	AiredEpisodeNumber int    `json:"airedEpisodeNumber"`
}

type episodesResponse struct {
	Links struct {
		Next *int `json:"next"`
	} `json:"links"`
	Data []tvdbEpisode `json:"data"`
}

func (e tvdbEpisode) episode(seriesID int64) Episode {
	return Episode{
		ID:         e.ID,
		SeriesID:   seriesID,
		Name:       e.EpisodeName,
		Overview:   e.Overview,
		FirstAired: e.FirstAired,
		Season:     e.AiredSeason,
		Number:     e.AiredEpisodeNumber,
	}
}

// Login starts a new session.
func (c *Client) Login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"apikey":   c.settings.APIKey,
		"username": c.settings.Username,
		"userkey":  c.settings.UserKey,
	})
	if err != nil {
		return fmt.Errorf("encode login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.BaseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var token tokenResponse
	status, err := c.send(req, &token)
	if err != nil {
		return err
	}
	if status != http.StatusOK || token.Token == "" {
		return fmt.Errorf("tvdb login returned %d", status)
	}

	c.mu.Lock()
	c.token = token.Token
	c.mu.Unlock()
	return nil
}

// Refresh renews the session token, logging in again when there is no
// session yet or the refresh is rejected.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return c.Login(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.settings.BaseURL+"/refresh_token", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var refreshed tokenResponse
	status, err := c.send(req, &refreshed)
	if err != nil || status != http.StatusOK || refreshed.Token == "" {
		return c.Login(ctx)
	}

	c.mu.Lock()
	c.token = refreshed.Token
	c.mu.Unlock()
	return nil
}

// SearchSeries returns the id of the series whose name matches exactly.
// Results are cached in memory and in the series cache file.
func (c *Client) SearchSeries(ctx context.Context, name string) (int64, error) {
	c.mu.Lock()
	id, ok := c.series[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var payload seriesSearchResponse
	status, err := c.get(ctx, "/search/series", url.Values{"name": {name}}, &payload)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", ErrSeriesNotFound, name)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("tvdb series search returned %d", status)
	}

	for _, s := range payload.Data {
		if s.SeriesName == name {
			c.mu.Lock()
			c.series[name] = s.ID
			c.mu.Unlock()
			if err := c.writeCache(); err != nil {
				return 0, err
			}
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrSeriesNotFound, name)
}

// Episodes lists every episode of a series, following pagination.
func (c *Client) Episodes(ctx context.Context, seriesID int64) ([]Episode, error) {
	var episodes []Episode
	page := 1
	for {
		var payload episodesResponse
		path := fmt.Sprintf("/series/%d/episodes", seriesID)
		status, err := c.get(ctx, path, url.Values{"page": {strconv.Itoa(page)}}, &payload)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("tvdb episodes returned %d", status)
		}
		for _, e := range payload.Data {
			episodes = append(episodes, e.episode(seriesID))
		}
		if payload.Links.Next == nil || *payload.Links.Next <= page {
			return episodes, nil
		}
		page = *payload.Links.Next
	}
}

// EpisodesByAirDate lists episodes of a series first aired on date.
func (c *Client) EpisodesByAirDate(ctx context.Context, seriesID int64, date string) ([]Episode, error) {
	var payload episodesResponse
	path := fmt.Sprintf("/series/%d/episodes/query", seriesID)
	status, err := c.get(ctx, path, url.Values{"firstAired": {date}}, &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("tvdb episode query returned %d", status)
	}

	episodes := make([]Episode, 0, len(payload.Data))
	for _, e := range payload.Data {
		episodes = append(episodes, e.episode(seriesID))
	}
	return episodes, nil
}

// FindEpisodes matches by episode name first and falls back to the air date.
func (c *Client) FindEpisodes(ctx context.Context, series, name, airDate string) ([]Episode, error) {
	if name == "" && airDate == "" {
		return nil, errors.New("episode name or air date required")
	}

	seriesID, err := c.SearchSeries(ctx, series)
	if err != nil {
		return nil, err
	}

	if name != "" {
		all, err := c.Episodes(ctx, seriesID)
		if err != nil {
			return nil, err
		}
		var matches []Episode
		for _, e := range all {
			if e.Name == name {
				matches = append(matches, e)
			}
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}

	if airDate == "" {
		return nil, nil
	}
	return c.EpisodesByAirDate(ctx, seriesID, airDate)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (int, error) {
	if err := c.ensureSession(ctx); err != nil {
		return 0, err
	}

	endpoint, err := url.Parse(c.settings.BaseURL + path)
	if err != nil {
		return 0, fmt.Errorf("parse tvdb url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	c.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.mu.Unlock()
	if c.settings.Language != "" {
		req.Header.Set("Accept-Language", c.settings.Language)
	}
	return c.send(req, out)
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return nil
	}
	return c.Login(ctx)
}

// send executes req and decodes a 200 body into out
func (c *Client) send(req *http.Request, out interface{}) (int, error) {
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode tvdb response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) readCache() error {
	if c.settings.SeriesCache == "" {
		return nil
	}
	data, err := os.ReadFile(c.settings.SeriesCache)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read series cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.series); err != nil {
		return fmt.Errorf("parse series cache %s: %w", c.settings.SeriesCache, err)
	}
	return nil
}

func (c *Client) writeCache() error {
	if c.settings.SeriesCache == "" {
		return nil
	}
	c.mu.Lock()
	data, err := json.MarshalIndent(c.series, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode series cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.settings.SeriesCache), 0o755); err != nil {
		return fmt.Errorf("create series cache directory: %w", err)
	}
	if err := os.WriteFile(c.settings.SeriesCache, data, 0o644); err != nil {
		return fmt.Errorf("write series cache: %w", err)
	}
	return nil
}
