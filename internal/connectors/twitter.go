package connectors

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/spacesedan/sentimas/internal/models"
)

const twitterAPIHost = "https://api.twitter.com"

var tweetStatusPattern = regexp.MustCompile(`(?:twitter|x)\.com/[^/]+/status/(\d+)`)

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// Twitter searches recent tweets. A keyword target is searched as is; a
// status URL becomes a search for the replies in its conversation.
type Twitter struct {
	client *twitter.Client
}

func NewTwitter(bearerToken string, timeout time.Duration) *Twitter {
	return &Twitter{client: &twitter.Client{
		Authorizer: bearerAuthorizer{token: bearerToken},
		Client:     &http.Client{Timeout: timeout},
		Host:       twitterAPIHost,
	}}
}

func (t *Twitter) Source() string { return models.SourceTwitter }

func twitterQuery(target string) string {
	if m := tweetStatusPattern.FindStringSubmatch(target); m != nil {
		return "conversation_id:" + m[1]
	}
	return strings.TrimSpace(target)
}

func (t *Twitter) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	query := twitterQuery(target)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search", ErrUnsupportedTarget)
	}

	var comments []models.RawComment
	nextToken := ""
	for len(comments) < count {
		opts := twitter.TweetRecentSearchOpts{
			Expansions:  []twitter.Expansion{twitter.ExpansionAuthorID},
			TweetFields: []twitter.TweetField{twitter.TweetFieldCreatedAt, twitter.TweetFieldAuthorID},
			UserFields:  []twitter.UserField{twitter.UserFieldUserName},
			// the endpoint accepts 10..100
			MaxResults: max(10, min(100, count-len(comments))),
			NextToken:  nextToken,
		}

		resp, err := t.client.TweetRecentSearch(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("twitter: recent search: %w", err)
		}
		if resp.Raw == nil {
			break
		}

		users := map[string]string{}
		if resp.Raw.Includes != nil {
			for _, u := range resp.Raw.Includes.Users {
				if u != nil {
					users[u.ID] = u.UserName
				}
			}
		}

		for _, tweet := range resp.Raw.Tweets {
			if tweet == nil {
				continue
			}
			created, _ := time.Parse(time.RFC3339, tweet.CreatedAt)
			comments = append(comments, models.RawComment{
				ID:     tweet.ID,
				Text:   tweet.Text,
				User:   users[tweet.AuthorID],
				Date:   created,
				Source: models.SourceTwitter,
			})
		}

		if resp.Meta == nil || resp.Meta.NextToken == "" || len(resp.Raw.Tweets) == 0 {
			break
		}
		nextToken = resp.Meta.NextToken
	}
	return limit(comments, count), nil
}
