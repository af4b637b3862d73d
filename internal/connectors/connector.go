package connectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/models"
)

// Connector fetches up to count comments for a post URL or, for search-based
// sources, a keyword.
type Connector interface {
	Source() string
	FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error)
}

var (
	ErrUnsupportedTarget = errors.New("no connector for target")
	ErrNotConfigured     = errors.New("connector not configured")
	ErrInvalidURL        = errors.New("invalid post URL")
)

// Registry picks the connector that serves a target.
type Registry struct {
	connectors map[string]Connector
}

func NewRegistry(list ...Connector) *Registry {
	r := &Registry{connectors: make(map[string]Connector, len(list))}
	for _, c := range list {
		r.connectors[c.Source()] = c
	}
	return r
}

// NewRegistryFromConfig builds every connector whose credentials are present.
func NewRegistryFromConfig(ctx context.Context, cfg config.ConnectorConfig) (*Registry, error) {
	var list []Connector

	if cfg.YouTubeAPIKey != "" {
		yt, err := NewYouTube(ctx, cfg.YouTubeAPIKey)
		if err != nil {
			return nil, err
		}
		list = append(list, yt)
	}
	if cfg.TwitterBearerToken != "" {
		list = append(list, NewTwitter(cfg.TwitterBearerToken, cfg.HTTPTimeout))
	}
	if cfg.FacebookAccessToken != "" {
		list = append(list, NewFacebook(cfg.FacebookAccessToken, cfg.HTTPTimeout))
	}
	if cfg.InstagramSessionID != "" {
		list = append(list, NewInstagram(cfg.InstagramSessionID, cfg.HTTPTimeout))
	}
	if cfg.TikTokAccessToken != "" {
		list = append(list, NewTikTok(cfg.TikTokAccessToken, cfg.HTTPTimeout))
	}
	if cfg.RedditClientID != "" && cfg.RedditClientSecret != "" {
		list = append(list, NewReddit(ctx, cfg.RedditClientID, cfg.RedditClientSecret))
	}

	sources := make([]string, 0, len(list))
	for _, c := range list {
		sources = append(sources, c.Source())
	}
	slog.Info("[Connectors] Registry ready", slog.String("sources", strings.Join(sources, ",")))

	return NewRegistry(list...), nil
}

// ForURL returns the connector for target. Anything that is not an http(s)
// URL is treated as a Twitter search keyword.
func (r *Registry) ForURL(target string) (Connector, error) {
	source, err := SourceForTarget(target)
	if err != nil {
		return nil, err
	}
	c, ok := r.connectors[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, source)
	}
	return c, nil
}

func SourceForTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if target == "" {
			return "", fmt.Errorf("%w: empty target", ErrUnsupportedTarget)
		}
		return models.SourceTwitter, nil
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case matchHost(host, "instagram.com"):
		return models.SourceInstagram, nil
	case matchHost(host, "facebook.com"), matchHost(host, "fb.com"):
		return models.SourceFacebook, nil
	case matchHost(host, "tiktok.com"):
		return models.SourceTikTok, nil
	case matchHost(host, "youtube.com"), matchHost(host, "youtu.be"):
		return models.SourceYouTube, nil
	case matchHost(host, "reddit.com"):
		return models.SourceReddit, nil
	case matchHost(host, "twitter.com"), matchHost(host, "x.com"):
		return models.SourceTwitter, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedTarget, target)
}

func matchHost(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func limit(comments []models.RawComment, count int) []models.RawComment {
	if count >= 0 && len(comments) > count {
		return comments[:count]
	}
	return comments
}
