package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/sentimas/internal/models"
)

const facebookGraphURL = "https://graph.facebook.com/v17.0"

var facebookPostPattern = regexp.MustCompile(`facebook\.com/([^/?]+)/posts/(\d+)`)

var (
	ErrFacebookInvalidToken = errors.New("facebook access token is invalid")
	ErrFacebookPermission   = errors.New("no permission to read this post or its comments")
	ErrFacebookNotPublic    = errors.New("post is not public or does not exist")
)

type Facebook struct {
	token   string
	baseURL string
	client  *http.Client
	backoff time.Duration
}

func NewFacebook(token string, timeout time.Duration) *Facebook {
	return &Facebook{
		token:   token,
		baseURL: facebookGraphURL,
		client:  &http.Client{Timeout: timeout},
		backoff: initialBackoff,
	}
}

func (f *Facebook) Source() string { return models.SourceFacebook }

type graphComment struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	From        struct {
		Name string `json:"name"`
	} `json:"from"`
}

type graphCommentsResponse struct {
	Data []graphComment `json:"data"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// FetchComments reads the comments of a page post. Only the
// facebook.com/<Page>/posts/<id> URL form is understood.
func (f *Facebook) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	m := facebookPostPattern.FindStringSubmatch(target)
	if m == nil {
		return nil, fmt.Errorf("%w: expected facebook.com/<Page>/posts/<id>", ErrInvalidURL)
	}
	postID := m[1] + "_" + m[2]

	q := url.Values{}
	q.Set("access_token", f.token)
	q.Set("limit", strconv.Itoa(count))
	q.Set("fields", "id,message,from,created_time")
	endpoint := fmt.Sprintf("%s/%s/comments?%s", f.baseURL, url.PathEscape(postID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp graphCommentsResponse
	if err := doJSON(f.client, req, f.backoff, &resp); err != nil {
		return nil, mapGraphError(err)
	}

	comments := make([]models.RawComment, 0, len(resp.Data))
	for _, c := range resp.Data {
		created, _ := time.Parse("2006-01-02T15:04:05-0700", c.CreatedTime)
		comments = append(comments, models.RawComment{
			ID:     c.ID,
			Text:   c.Message,
			User:   c.From.Name,
			Date:   created,
			Source: models.SourceFacebook,
		})
	}
	return limit(comments, count), nil
}

func mapGraphError(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("facebook: %w", err)
	}
	var ge graphError
	if json.Unmarshal(se.Body, &ge) != nil || ge.Error.Message == "" {
		return fmt.Errorf("facebook: %w", err)
	}

	msg := ge.Error.Message
	switch {
	case strings.Contains(msg, "Invalid OAuth access token"), ge.Error.Code == 190:
		return ErrFacebookInvalidToken
	case strings.Contains(msg, "Permissions error"), strings.Contains(msg, "does not have permission"):
		return ErrFacebookPermission
	case strings.Contains(msg, "Unsupported get request"), strings.Contains(msg, "Cannot access this post"):
		return ErrFacebookNotPublic
	}
	return fmt.Errorf("facebook API error: %s", msg)
}
