package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/spacesedan/sentimas/internal/models"
)

const tiktokCommentsURL = "https://open.tiktokapis.com/v2/research/video/comment/list/"

var tiktokVideoPattern = regexp.MustCompile(`/video/(\d+)`)

// TikTok uses the Research API comment list endpoint.
type TikTok struct {
	token    string
	endpoint string
	client   *http.Client
	backoff  time.Duration
}

func NewTikTok(token string, timeout time.Duration) *TikTok {
	return &TikTok{
		token:    token,
		endpoint: tiktokCommentsURL,
		client:   &http.Client{Timeout: timeout},
		backoff:  initialBackoff,
	}
}

func (t *TikTok) Source() string { return models.SourceTikTok }

type tiktokCommentRequest struct {
	VideoID  int64 `json:"video_id"`
	MaxCount int   `json:"max_count"`
	Cursor   int   `json:"cursor"`
}

type tiktokCommentResponse struct {
	Data struct {
		Comments []struct {
			ID         json.Number `json:"id"`
			Text       string      `json:"text"`
			CreateTime int64       `json:"create_time"`
		} `json:"comments"`
		HasMore bool `json:"has_more"`
		Cursor  int  `json:"cursor"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *TikTok) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	m := tiktokVideoPattern.FindStringSubmatch(target)
	if m == nil {
		return nil, fmt.Errorf("%w: no video id in %s", ErrInvalidURL, target)
	}
	videoID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var comments []models.RawComment
	cursor := 0
	for len(comments) < count {
		page, err := t.page(ctx, tiktokCommentRequest{VideoID: videoID, MaxCount: min(count-len(comments), 100), Cursor: cursor})
		if err != nil {
			return nil, err
		}
		for _, c := range page.Data.Comments {
			comments = append(comments, models.RawComment{
				ID:     c.ID.String(),
				Text:   c.Text,
				Date:   time.Unix(c.CreateTime, 0).UTC(),
				Source: models.SourceTikTok,
			})
		}
		if !page.Data.HasMore || len(page.Data.Comments) == 0 {
			break
		}
		cursor = page.Data.Cursor
	}
	return limit(comments, count), nil
}

func (t *TikTok) page(ctx context.Context, body tiktokCommentRequest) (tiktokCommentResponse, error) {
	var resp tiktokCommentResponse
	payload, err := json.Marshal(body)
	if err != nil {
		return resp, err
	}

	endpoint := t.endpoint + "?fields=id,text,create_time"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", "application/json")

	if err := doJSON(t.client, req, t.backoff, &resp); err != nil {
		return resp, fmt.Errorf("tiktok: %w", err)
	}
	if resp.Error.Code != "" && resp.Error.Code != "ok" {
		return resp, fmt.Errorf("tiktok API error %s: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp, nil
}
