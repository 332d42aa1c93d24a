package generation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultNoEmbedURL is the public oEmbed wrapper used for title lookups.
	DefaultNoEmbedURL = "https://noembed.com/embed"

	lookupTimeout = 10 * time.Second
)

// NoEmbedResolver resolves a video's title through noembed. Concurrent
// lookups of the same id share one request.
type NoEmbedResolver struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
	group   singleflight.Group
}

// NewNoEmbedResolver returns a resolver. An empty baseURL uses DefaultNoEmbedURL.
func NewNoEmbedResolver(baseURL string, client *http.Client, log *slog.Logger) *NoEmbedResolver {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultNoEmbedURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &NoEmbedResolver{baseURL: baseURL, client: client, log: log}
}

// ResolveTitle returns the title for id, or false if it cannot be found or
// ctx ends first. Failures are logged and never returned.
//
// The shared request is detached from ctx so one caller giving up does not
// fail the others waiting on it.
func (r *NoEmbedResolver) ResolveTitle(ctx context.Context, id string) (string, bool) {
	ch := r.group.DoChan(id, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return r.fetch(fctx, id)
	})

	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		if res.Err != nil {
			r.log.Warn("title lookup failed", slog.String("identifier", id), slog.String("error", res.Err.Error()))
			return "", false
		}
		title := res.Val.(string)
		return title, title != ""
	}
}

func (r *NoEmbedResolver) fetch(ctx context.Context, id string) (string, error) {
	u := r.baseURL + "?url=" + url.QueryEscape(WatchURL(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build title request: %w", err)
	}
	res, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("title request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("title request status %d", res.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read title response: %w", err)
	}
	if e := gjson.GetBytes(raw, "error"); e.Exists() {
		return "", nil
	}
	return strings.TrimSpace(gjson.GetBytes(raw, "title").String()), nil
}
