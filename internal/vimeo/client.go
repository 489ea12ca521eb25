package vimeo

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vimeoalbum/backend/internal/logging"
)

const (
	// DefaultBaseURL is the public Vimeo API host.
	DefaultBaseURL = "https://api.vimeo.com"
	// DefaultUserAgent identifies this client to the API.
	DefaultUserAgent = "vimeoalbum HTTP Client (Vimeo Album Embed)"

	// RateLimitHeader carries the number of requests left in the current window.
	RateLimitHeader = "X-RateLimit-Remaining"
	// RateLimitThreshold is the remaining-request count below which a warning is raised.
	RateLimitThreshold = 10

	perPage = 100
	fields  = "name,description,embed.html,pictures.sizes,privacy.embed,release_time"
)

// Client fetches album contents from the Vimeo REST API.
type Client struct {
	BaseURL     string
	AccessToken string
	UserAgent   string

	http *http.Client
}

// NewClient constructs a Client with a bounded per-request timeout.
func NewClient(accessToken, baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		UserAgent:   DefaultUserAgent,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchAlbumVideos drains every page of the album and returns its videos in
// album order together with any non-fatal warnings. An API error aborts the
// fetch and no videos are returned.
func (c *Client) FetchAlbumVideos(ctx context.Context, albumID string) (AlbumResult, error) {
	if c == nil || strings.TrimSpace(c.AccessToken) == "" {
		return AlbumResult{}, &ConfigError{Err: ErrMissingAccessToken}
	}

	ctx, span := logging.StartSpan(ctx, "vimeo.fetch_album")
	defer span.End()
	logger := logging.FromContext(ctx).With(slog.String("album_id", albumID))

	var (
		result AlbumResult
		pages  int
	)
	for page, err := range c.Pages(ctx, albumID) {
		if err != nil {
			span.RecordError(err)
			logger.Warn("album fetch aborted", "pages", pages, "error", err)
			return AlbumResult{}, err
		}
		pages++
		result.Videos = append(result.Videos, page.Videos...)
		if page.RateLimitRemaining >= 0 && page.RateLimitRemaining < RateLimitThreshold {
			result.Warnings = append(result.Warnings, rateLimitWarning(page.RateLimitRemaining))
		}
	}

	logger.Info("album fetched", "pages", pages, "videos", len(result.Videos), "warnings", len(result.Warnings))
	return result, nil
}

// Pages lazily yields the album pages in order, following paging pointers
// until a page without one. The sequence stops after the first error.
func (c *Client) Pages(ctx context.Context, albumID string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		if c == nil || strings.TrimSpace(c.AccessToken) == "" {
			yield(Page{}, &ConfigError{Err: ErrMissingAccessToken})
			return
		}

		next, err := c.firstPageURL(albumID)
		if err != nil {
			yield(Page{}, err)
			return
		}

		for next != "" {
			page, err := c.fetchPage(ctx, next)
			if err != nil {
				yield(Page{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.Next == "" {
				return
			}
			next, err = c.resolve(page.Next)
			if err != nil {
				yield(Page{}, err)
				return
			}
		}
	}
}

func (c *Client) firstPageURL(albumID string) (string, error) {
	if strings.TrimSpace(albumID) == "" {
		return "", &ConfigError{Err: fmt.Errorf("empty album id")}
	}

	val := url.Values{}
	val.Set("sort", "manual")
	val.Set("per_page", strconv.Itoa(perPage))
	val.Set("fields", fields)

	return c.BaseURL + "/me/albums/" + url.PathEscape(albumID) + "/videos?" + val.Encode(), nil
}

func (c *Client) resolve(next string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", &ConfigError{Err: fmt.Errorf("parse base url: %w", err)}
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse paging pointer %q: %w", next, err)
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host != base.Host {
		return "", fmt.Errorf("%w: %s", ErrForeignPagingHost, resolved.Host)
	}
	return resolved.String(), nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build vimeo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/vnd.vimeo.*+json;version=3.4")

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("vimeo request: %w", err)
	}
	defer resp.Body.Close()

	var body pageResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if body.Error != "" || body.DeveloperMessage != "" {
		return Page{}, &APIError{
			Message:          body.Error,
			DeveloperMessage: body.DeveloperMessage,
			Code:             body.ErrorCode,
			Status:           resp.StatusCode,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, &APIError{
			Message: fmt.Sprintf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Status:  resp.StatusCode,
		}
	}
	if decodeErr != nil {
		return Page{}, fmt.Errorf("decode vimeo response: %w", decodeErr)
	}

	payloads := body.Data
	if len(payloads) == 0 {
		payloads = body.Videos
	}

	page := Page{
		Videos:             make([]Video, 0, len(payloads)),
		Next:               body.Paging.Next,
		RateLimitRemaining: rateLimitRemaining(resp.Header),
	}
	for _, p := range payloads {
		page.Videos = append(page.Videos, p.toVideo())
	}
	return page, nil
}

func rateLimitRemaining(h http.Header) int {
	raw := strings.TrimSpace(h.Get(RateLimitHeader))
	if raw == "" {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func rateLimitWarning(remaining int) string {
	return fmt.Sprintf("Vimeo API rate limit nearly exhausted: %d requests remaining", remaining)
}
