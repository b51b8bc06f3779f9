// Package rest implements client.DataService over the True Tales HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Amulyajoshtalks/true-tales/client"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/api"
)

// defaultTimeout bounds every remote call before it surfaces as
// unavailable.
const defaultTimeout = 15 * time.Second

// TokenSource supplies the current bearer token; an empty string means the
// session is anonymous.
type TokenSource func() string

type Client struct {
	base  string
	http  *http.Client
	token TokenSource
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource attaches the bearer-token supplier for signed-in sessions.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ client.DataService = (*Client)(nil)

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", client.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errNotFound distinguishes an absent resource from a failure.
var errNotFound = fmt.Errorf("not found")

func apiError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return client.ErrAuthRequired
	}
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		return fmt.Errorf("backend %s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return fmt.Errorf("backend status %d", resp.StatusCode)
}

type storiesResponse struct {
	Stories []client.StorySummary `json:"stories"`
}

func (c *Client) ListStorySummaries(ctx context.Context, filter string, offset, limit int) ([]client.StorySummary, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out storiesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/feed?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Stories, nil
}

func (c *Client) GetUserEpisodeFlags(ctx context.Context, episodeID, _ string) (client.UserFlags, error) {
	// The backend derives the viewer from the bearer token.
	var out client.UserFlags
	err := c.do(ctx, http.MethodGet, "/v1/episodes/"+url.PathEscape(episodeID)+"/flags", nil, &out)
	return out, err
}

func (c *Client) InsertLike(ctx context.Context, episodeID, _ string) error {
	return c.do(ctx, http.MethodPost, "/v1/episodes/"+url.PathEscape(episodeID)+"/like", nil, nil)
}

func (c *Client) DeleteLike(ctx context.Context, episodeID, _ string) error {
	return c.do(ctx, http.MethodDelete, "/v1/episodes/"+url.PathEscape(episodeID)+"/like", nil, nil)
}

func (c *Client) InsertBookmark(ctx context.Context, episodeID, _ string) error {
	return c.do(ctx, http.MethodPost, "/v1/episodes/"+url.PathEscape(episodeID)+"/bookmark", nil, nil)
}

func (c *Client) DeleteBookmark(ctx context.Context, episodeID, _ string) error {
	return c.do(ctx, http.MethodDelete, "/v1/episodes/"+url.PathEscape(episodeID)+"/bookmark", nil, nil)
}

func (c *Client) GetInteraction(ctx context.Context, episodeID, viewerID string) (client.Interaction, bool, error) {
	q := url.Values{"viewer_id": []string{viewerID}}
	var out client.Interaction
	err := c.do(ctx, http.MethodGet, "/v1/episodes/"+url.PathEscape(episodeID)+"/interactions?"+q.Encode(), nil, &out)
	if err != nil {
		if err == errNotFound {
			return client.Interaction{}, false, nil
		}
		return client.Interaction{}, false, err
	}
	return out, true, nil
}

func (c *Client) CreateInteraction(ctx context.Context, rec client.Interaction) (client.Interaction, error) {
	var out client.Interaction
	err := c.do(ctx, http.MethodPost, "/v1/episodes/"+url.PathEscape(rec.EpisodeID)+"/interactions", rec, &out)
	return out, err
}

func (c *Client) UpdateInteraction(ctx context.Context, id string, patch client.InteractionPatch) error {
	return c.do(ctx, http.MethodPatch, "/v1/interactions/"+url.PathEscape(id), patch, nil)
}

type commentsResponse struct {
	Comments []client.Comment `json:"comments"`
}

func (c *Client) ListComments(ctx context.Context, episodeID string, limit int) ([]client.Comment, error) {
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	var out commentsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/episodes/"+url.PathEscape(episodeID)+"/comments?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

func (c *Client) CreateComment(ctx context.Context, episodeID, _, body string) (client.Comment, error) {
	req := map[string]string{"body": body}
	var out client.Comment
	err := c.do(ctx, http.MethodPost, "/v1/episodes/"+url.PathEscape(episodeID)+"/comments", req, &out)
	return out, err
}

func (c *Client) CurrentViewer(ctx context.Context) (client.Viewer, error) {
	var out client.Viewer
	err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &out)
	if err != nil {
		if err == client.ErrAuthRequired {
			return client.Viewer{}, nil
		}
		return client.Viewer{}, err
	}
	return out, nil
}
