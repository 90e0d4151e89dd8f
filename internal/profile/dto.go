// AngelaMos | 2026
// dto.go

package profile

import (
	"github.com/carterperez-dev/whome/internal/link"
	"github.com/carterperez-dev/whome/internal/ordering"
)

type UpdateProfileRequest struct {
	FullName  string `json:"full_name"  validate:"max=120"`
	Birthday  string `json:"birthday"   validate:"max=32"`
	City      string `json:"city"       validate:"max=120"`
	Workplace string `json:"workplace"  validate:"max=120"`
	Bio       string `json:"bio"        validate:"max=2000"`
	Theme     string `json:"theme"      validate:"max=32"`
	CustomCSS string `json:"custom_css" validate:"max=20000"`
}

type CreateProjectRequest struct {
	Title       string `json:"title"       validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	URL         string `json:"url"         validate:"omitempty,http_url,max=2048"`
}

type CreateExperienceRequest struct {
	Role        string `json:"role"        validate:"required,max=120"`
	Company     string `json:"company"     validate:"max=120"`
	StartDate   string `json:"start_date"  validate:"max=32"`
	EndDate     string `json:"end_date"    validate:"max=32"`
	Description string `json:"description" validate:"max=2000"`
}

type CreateContactRequest struct {
	Label string `json:"label" validate:"required,max=60"`
	Value string `json:"value" validate:"required,max=255"`
}

type ReorderRequest struct {
	Order ordering.IDs `json:"order"`
}

type ProfileResponse struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
	City      string `json:"city,omitempty"`
	Workplace string `json:"workplace,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Theme     string `json:"theme,omitempty"`
	CustomCSS string `json:"custom_css,omitempty"`
}

type ProjectResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Position    int    `json:"position"`
}

type ExperienceResponse struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

type ContactResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type PublicResponse struct {
	Profile     ProfileResponse           `json:"profile"`
	Links       []link.PublicLinkResponse `json:"links"`
	Projects    []ProjectResponse         `json:"projects"`
	Experiences []ExperienceResponse      `json:"experiences"`
	Contacts    []ContactResponse         `json:"contacts"`
}

func ToProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		Username:  p.Username,
		FullName:  p.FullName.String,
		Birthday:  p.Birthday.String,
		City:      p.City.String,
		Workplace: p.Workplace.String,
		Bio:       p.Bio.String,
		AvatarURL: p.AvatarPath.String,
		Theme:     p.Theme.String,
		CustomCSS: p.CustomCSS.String,
	}
}

func ToProjectResponse(p *Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description.String,
		URL:         p.URL.String,
		Position:    p.Position,
	}
}

func ToProjectResponseList(projects []Project) []ProjectResponse {
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = ToProjectResponse(&projects[i])
	}
	return out
}

func ToExperienceResponse(e *Experience) ExperienceResponse {
	return ExperienceResponse{
		ID:          e.ID,
		Role:        e.Role,
		Company:     e.Company.String,
		StartDate:   e.StartDate.String,
		EndDate:     e.EndDate.String,
		Description: e.Description.String,
		Position:    e.Position,
	}
}

func ToExperienceResponseList(experiences []Experience) []ExperienceResponse {
	out := make([]ExperienceResponse, len(experiences))
	for i := range experiences {
		out[i] = ToExperienceResponse(&experiences[i])
	}
	return out
}

func ToContactResponseList(contacts []Contact) []ContactResponse {
	out := make([]ContactResponse, len(contacts))
	for i, c := range contacts {
		out[i] = ContactResponse{ID: c.ID, Label: c.Label, Value: c.Value}
	}
	return out
}

func ToPublicResponse(v *View) PublicResponse {
	return PublicResponse{
		Profile:     ToProfileResponse(v.Profile),
		Links:       link.ToPublicLinkList(v.Links),
		Projects:    ToProjectResponseList(v.Projects),
		Experiences: ToExperienceResponseList(v.Experiences),
		Contacts:    ToContactResponseList(v.Contacts),
	}
}
