// Package feed reads a subject's recent public posts from a Bluesky AppView.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-botdir/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	// DefaultBaseURL is the public unauthenticated AppView endpoint.
	DefaultBaseURL = "https://public.api.bsky.app"

	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// HTTPDoer is the client surface the reader needs; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BskyFeedReader queries app.bsky.feed.getAuthorFeed. All failures are
// transient from the caller's perspective; the verification poller owns the
// retry budget.
type BskyFeedReader struct {
	baseURL string
	client  HTTPDoer
	logger  core.Logger
}

type Option func(*BskyFeedReader)

func WithBaseURL(baseURL string) Option {
	return func(r *BskyFeedReader) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			r.baseURL = strings.TrimSuffix(trimmed, "/")
		}
	}
}

func WithHTTPClient(client HTTPDoer) Option {
	return func(r *BskyFeedReader) {
		if client != nil {
			r.client = client
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(r *BskyFeedReader) {
		r.logger = logger
	}
}

func NewBskyFeedReader(options ...Option) *BskyFeedReader {
	reader := &BskyFeedReader{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(reader)
	}
	reader.logger = glog.Ensure(reader.logger)
	return reader
}

type authorFeedResponse struct {
	Feed []struct {
		Post struct {
			URI    string `json:"uri"`
			Record struct {
				Text      string    `json:"text"`
				CreatedAt time.Time `json:"createdAt"`
			} `json:"record"`
		} `json:"post"`
	} `json:"feed"`
}

// RecentPosts returns up to limit of the subject's latest posts, newest
// first, as the AppView delivers them.
func (r *BskyFeedReader) RecentPosts(ctx context.Context, did string, limit int) ([]core.FeedPost, error) {
	if r == nil || r.client == nil {
		return nil, fmt.Errorf("feed: reader is not configured")
	}
	did = strings.TrimSpace(did)
	if did == "" {
		return nil, fmt.Errorf("feed: did is required")
	}
	if limit <= 0 {
		limit = 30
	}

	endpoint := r.baseURL + "/xrpc/app.bsky.feed.getAuthorFeed?" + url.Values{
		"actor": {did},
		"limit": {strconv.Itoa(limit)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: appview request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed: appview returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("feed: read appview response: %w", err)
	}

	var decoded authorFeedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("feed: decode appview response: %w", err)
	}

	posts := make([]core.FeedPost, 0, len(decoded.Feed))
	for _, item := range decoded.Feed {
		if strings.TrimSpace(item.Post.URI) == "" {
			continue
		}
		posts = append(posts, core.FeedPost{
			URI:       item.Post.URI,
			Text:      item.Post.Record.Text,
			CreatedAt: item.Post.Record.CreatedAt,
		})
	}
	r.logger.Debug("author feed fetched", "did", did, "posts", len(posts))
	return posts, nil
}

var _ core.FeedReader = (*BskyFeedReader)(nil)
