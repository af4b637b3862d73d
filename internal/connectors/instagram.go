package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/spacesedan/sentimas/internal/models"
)

const (
	instagramAPIURL = "https://www.instagram.com/api/v1"
	instagramAppID  = "936619743392459"
)

var instagramShortcodePattern = regexp.MustCompile(`/(?:p|reel)/([^/?#]+)`)

// Instagram reads comments through the web app's private API, authenticated
// with an existing browser session cookie.
type Instagram struct {
	sessionID string
	baseURL   string
	client    *http.Client
	backoff   time.Duration
}

func NewInstagram(sessionID string, timeout time.Duration) *Instagram {
	return &Instagram{
		sessionID: sessionID,
		baseURL:   instagramAPIURL,
		client:    &http.Client{Timeout: timeout},
		backoff:   initialBackoff,
	}
}

func (i *Instagram) Source() string { return models.SourceInstagram }

type instagramMediaInfo struct {
	Items []struct {
		PK json.Number `json:"pk"`
	} `json:"items"`
}

type instagramComments struct {
	Comments []struct {
		PK        json.Number `json:"pk"`
		Text      string      `json:"text"`
		CreatedAt int64       `json:"created_at"`
		User      struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"comments"`
}

func (i *Instagram) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	m := instagramShortcodePattern.FindStringSubmatch(target)
	if m == nil {
		return nil, fmt.Errorf("%w: no shortcode in %s", ErrInvalidURL, target)
	}

	pk, err := i.mediaPK(ctx, m[1])
	if err != nil {
		return nil, err
	}

	var resp instagramComments
	if err := i.get(ctx, fmt.Sprintf("%s/media/%s/comments/", i.baseURL, pk), &resp); err != nil {
		return nil, fmt.Errorf("instagram comments: %w", err)
	}

	comments := make([]models.RawComment, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		var created time.Time
		if c.CreatedAt > 0 {
			created = time.Unix(c.CreatedAt, 0).UTC()
		}
		comments = append(comments, models.RawComment{
			ID:     c.PK.String(),
			Text:   c.Text,
			User:   c.User.Username,
			Date:   created,
			Source: models.SourceInstagram,
		})
	}
	return limit(comments, count), nil
}

func (i *Instagram) mediaPK(ctx context.Context, shortcode string) (string, error) {
	var info instagramMediaInfo
	if err := i.get(ctx, fmt.Sprintf("%s/media/by_shortcode/%s/info/", i.baseURL, shortcode), &info); err != nil {
		return "", fmt.Errorf("instagram media info: %w", err)
	}
	if len(info.Items) == 0 || info.Items[0].PK == "" {
		return "", errors.New("instagram media info: no media pk in response")
	}
	return info.Items[0].PK.String(), nil
}

func (i *Instagram) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-ig-app-id", instagramAppID)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: i.sessionID})
	return doJSON(i.client, req, i.backoff, out)
}
