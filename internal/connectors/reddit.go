package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/sentimas/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL   = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL    = "https://oauth.reddit.com"
	REDDIT_USER_AGENT = "sentimas-bot/0.1"
)

var (
	redditPostPattern = regexp.MustCompile(`reddit\.com/(?:r/[^/]+/)?comments/([a-z0-9]+)`)
	markdownLink      = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURL           = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

type Reddit struct {
	config  *clientcredentials.Config
	client  *http.Client
	apiURL  string
	backoff time.Duration
	ctx     context.Context
	mu      sync.Mutex
}

func NewReddit(ctx context.Context, clientID, clientSecret string) *Reddit {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     REDDIT_AUTH_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &Reddit{
		config:  conf,
		client:  conf.Client(ctx),
		apiURL:  REDDIT_API_URL,
		backoff: time.Second,
		ctx:     ctx,
	}
}

func (r *Reddit) Source() string { return models.SourceReddit }

func (r *Reddit) refreshClient() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client = r.config.Client(r.ctx)
}

func (r *Reddit) httpClient() *http.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

// FetchComments reads the top-level comments of a submission. Markdown bodies
// are flattened to plain text.
func (r *Reddit) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	m := redditPostPattern.FindStringSubmatch(target)
	if m == nil {
		return nil, fmt.Errorf("%w: no submission id in %s", ErrInvalidURL, target)
	}

	endpoint, err := url.Parse(fmt.Sprintf("%s/comments/%s", r.apiURL, m[1]))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("limit", strconv.Itoa(count))
	q.Set("depth", "1")
	q.Set("raw_json", "1")
	endpoint.RawQuery = q.Encode()

	body, err := r.fetch(ctx, endpoint.String())
	if err != nil {
		return nil, err
	}

	var listings models.RedditAPIResponse
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to decode listing: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []models.RawComment
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" || child.Data.Body == "" {
			continue
		}
		comments = append(comments, models.RawComment{
			ID:     child.Data.ID,
			Text:   ConvertMarkdownToText(child.Data.Body),
			User:   child.Data.Author,
			Date:   time.Unix(int64(child.Data.CreatedUTC), 0).UTC(),
			Source: models.SourceReddit,
		})
	}
	return limit(comments, count), nil
}

func (r *Reddit) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	backoff := r.backoff
	refreshed := false

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", REDDIT_USER_AGENT)

		resp, err := r.httpClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("[RedditClient] request failed: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
			r.refreshClient()
			refreshed = true
			continue
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			slog.Warn("[RedditClient] Retrying request",
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return nil, fmt.Errorf("[RedditClient] Max retries reached request failed")
}

func RemoveLinks(input string) string {
	input = markdownLink.ReplaceAllString(input, "$1") // keep only the text
	return bareURL.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and strips the resulting tags so
// emphasis markers and link syntax do not reach the cleaner.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input),
		blackfriday.WithNoExtensions(),
		blackfriday.WithRenderer(plainRenderer()))
	plain := html.UnescapeString(htmlTag.ReplaceAllString(string(output), " "))
	return strings.Join(strings.Fields(RemoveLinks(plain)), " ")
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// plainRenderer leaves quotes and dashes alone; smartypants would turn them
// into entities.
func plainRenderer() blackfriday.Renderer {
	return blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML,
	})
}
