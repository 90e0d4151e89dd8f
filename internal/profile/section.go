// AngelaMos | 2026
// section.go

package profile

import (
	"github.com/carterperez-dev/whome/internal/ordering"
)

// Section names one of the owned collections on a profile.
type Section string

const (
	Projects    Section = "projects"
	Experiences Section = "experiences"
	Contacts    Section = "contacts"
)

// list returns the ordering for sections that are position-ordered.
// Contacts sort by label and have none.
func (s Section) list() (ordering.List, bool) {
	switch s {
	case Projects:
		return ordering.Projects, true
	case Experiences:
		return ordering.Experiences, true
	default:
		return ordering.List{}, false
	}
}
