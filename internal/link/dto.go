// AngelaMos | 2026
// dto.go

package link

import (
	"github.com/carterperez-dev/whome/internal/ordering"
)

type CreateLinkRequest struct {
	Label     string `json:"label"      validate:"required,max=120"`
	URL       string `json:"url"        validate:"required,http_url,max=2048"`
	Tags      string `json:"tags"       validate:"max=255"`
	GroupName string `json:"group_name" validate:"max=120"`
	ThumbURL  string `json:"thumb_url"  validate:"omitempty,http_url,max=2048"`
}

type QuickAddRequest struct {
	Platform string `json:"platform" validate:"required,oneof=github linkedin x instagram"`
	Handle   string `json:"handle"   validate:"required,max=100"`
}

type ReorderRequest struct {
	Order ordering.IDs `json:"order"`
}

type LinkResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	URL       string `json:"url"`
	Position  int    `json:"position"`
	Tags      string `json:"tags,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	ThumbURL  string `json:"thumb_url,omitempty"`
	Clicks    int64  `json:"clicks"`
}

// PublicLinkResponse points visitors at the click ledger instead of the
// destination so every visit is counted.
type PublicLinkResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Href      string `json:"href"`
	Tags      string `json:"tags,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	ThumbURL  string `json:"thumb_url,omitempty"`
}

func ToLinkResponse(l *Link) LinkResponse {
	return LinkResponse{
		ID:        l.ID,
		Label:     l.Label,
		URL:       l.URL,
		Position:  l.Position,
		Tags:      l.Tags.String,
		GroupName: l.GroupName.String,
		ThumbURL:  l.ThumbURL.String,
		Clicks:    l.Clicks,
	}
}

func ToLinkResponseList(links []Link) []LinkResponse {
	out := make([]LinkResponse, len(links))
	for i := range links {
		out[i] = ToLinkResponse(&links[i])
	}
	return out
}

func ToPublicLinkList(links []Link) []PublicLinkResponse {
	out := make([]PublicLinkResponse, len(links))
	for i, l := range links {
		out[i] = PublicLinkResponse{
			ID:        l.ID,
			Label:     l.Label,
			Href:      "/l/" + l.ID,
			Tags:      l.Tags.String,
			GroupName: l.GroupName.String,
			ThumbURL:  l.ThumbURL.String,
		}
	}
	return out
}
