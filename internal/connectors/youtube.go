package connectors

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/spacesedan/sentimas/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?|shorts)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

type YouTube struct {
	service *youtube.Service
}

func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("youtube: failed to create service: %w", err)
	}
	return &YouTube{service: svc}, nil
}

func (y *YouTube) Source() string { return models.SourceYouTube }

func VideoID(target string) (string, bool) {
	m := youtubeIDPattern.FindStringSubmatch(target)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FetchComments pages through the video's top-level comment threads, 100 at a
// time, until count is reached or the video runs out of comments.
func (y *YouTube) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	videoID, ok := VideoID(target)
	if !ok {
		return nil, fmt.Errorf("%w: no video id in %s", ErrInvalidURL, target)
	}

	var comments []models.RawComment
	pageToken := ""
	for len(comments) < count {
		call := y.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(100).
			TextFormat("plainText").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("youtube: commentThreads.list: %w", err)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			s := item.Snippet.TopLevelComment.Snippet
			published, _ := time.Parse(time.RFC3339, s.PublishedAt)
			comments = append(comments, models.RawComment{
				ID:     item.Id,
				Text:   s.TextDisplay,
				User:   s.AuthorDisplayName,
				Date:   published,
				Source: models.SourceYouTube,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return limit(comments, count), nil
}
