package connectors

import (
	"context"
	"errors"
	"testing"

	"github.com/spacesedan/sentimas/internal/models"
)

func TestSourceForTarget(t *testing.T) {
	tests := []struct {
		target  string
		want    string
		wantErr bool
	}{
		{"https://www.instagram.com/p/C7mTbnJsX2u/", models.SourceInstagram, false},
		{"https://www.facebook.com/MiMarca/posts/12345", models.SourceFacebook, false},
		{"https://m.facebook.com/MiMarca/posts/12345", models.SourceFacebook, false},
		{"https://www.tiktok.com/@user/video/7234567890123456789", models.SourceTikTok, false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.SourceYouTube, false},
		{"https://youtu.be/dQw4w9WgXcQ", models.SourceYouTube, false},
		{"https://old.reddit.com/r/spain/comments/abc123/titulo/", models.SourceReddit, false},
		{"https://x.com/marca/status/1790000000000000000", models.SourceTwitter, false},
		{"servicio al cliente", models.SourceTwitter, false},
		{"#ofertas", models.SourceTwitter, false},
		{"https://notyoutube.com/watch?v=dQw4w9WgXcQ", "", true},
		{"https://example.com/post/1", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := SourceForTarget(tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SourceForTarget = %q, want %q", got, tt.want)
			}
		})
	}
}

type stubConnector struct{ source string }

func (s stubConnector) Source() string { return s.source }

func (s stubConnector) FetchComments(ctx context.Context, target string, count int) ([]models.RawComment, error) {
	return nil, nil
}

func TestRegistryForURL(t *testing.T) {
	r := NewRegistry(stubConnector{models.SourceYouTube})

	c, err := r.ForURL("https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Source() != models.SourceYouTube {
		t.Errorf("got %s", c.Source())
	}

	if _, err := r.ForURL("https://www.instagram.com/p/abc/"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := r.ForURL("https://example.com/x"); !errors.Is(err, ErrUnsupportedTarget) {
		t.Errorf("err = %v, want ErrUnsupportedTarget", err)
	}
}

func TestVideoID(t *testing.T) {
	for _, u := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
	} {
		if id, ok := VideoID(u); !ok || id != "dQw4w9WgXcQ" {
			t.Errorf("VideoID(%q) = %q, %v", u, id, ok)
		}
	}
	if _, ok := VideoID("https://www.youtube.com/channel/x"); ok {
		t.Error("channel URL should not yield a video id")
	}
}

func TestLimit(t *testing.T) {
	in := make([]models.RawComment, 5)
	if got := limit(in, 3); len(got) != 3 {
		t.Errorf("len = %d", len(got))
	}
	if got := limit(in, 10); len(got) != 5 {
		t.Errorf("len = %d", len(got))
	}
}
