package models

import "time"

// Platform identifiers used as the "source" of stored analyses.
const (
	SourceInstagram = "Instagram"
	SourceFacebook  = "Facebook"
	SourceTikTok    = "TikTok"
	SourceTwitter   = "Twitter"
	SourceYouTube   = "YouTube"
	SourceReddit    = "Reddit"
	SourceAPI       = "API"
)

// RawComment is a single comment as produced by a platform connector.
type RawComment struct {
	ID     string    `json:"id"`
	Text   string    `json:"texto"`
	User   string    `json:"usuario"`
	Date   time.Time `json:"fecha,omitempty"`
	Source string    `json:"fuente"`
}
