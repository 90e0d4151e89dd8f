// AngelaMos | 2026
// dto.go

package session

import (
	"strings"
	"time"

	"github.com/avct/uasurfer"
)

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	Current   bool      `json:"current"`
}

type RevokeResponse struct {
	Revoked   bool `json:"revoked"`
	SignedOut bool `json:"signed_out"`
}

func ToSessionResponse(rec Record, currentID string) SessionResponse {
	ua := uasurfer.Parse(rec.UserAgent)

	return SessionResponse{
		SessionID: rec.SessionID,
		Browser:   strings.TrimPrefix(ua.Browser.Name.String(), "Browser"),
		OS:        strings.TrimPrefix(ua.OS.Name.String(), "OS"),
		Device:    strings.TrimPrefix(ua.DeviceType.String(), "Device"),
		IP:        rec.IP,
		CreatedAt: rec.CreatedAt,
		LastSeen:  rec.LastSeen,
		Current:   rec.SessionID == currentID,
	}
}

func ToSessionResponseList(recs []Record, currentID string) []SessionResponse {
	out := make([]SessionResponse, len(recs))
	for i, rec := range recs {
		out[i] = ToSessionResponse(rec, currentID)
	}
	return out
}
