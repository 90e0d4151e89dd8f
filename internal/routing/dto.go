// AngelaMos | 2026
// dto.go

package routing

type SetRoutesRequest struct {
	VanityPath   string `json:"vanity_path"   validate:"max=64"`
	CustomDomain string `json:"custom_domain" validate:"max=253"`
}

type RoutesResponse struct {
	VanityPath   string `json:"vanity_path"`
	CustomDomain string `json:"custom_domain"`
}

func ToRoutesResponse(e *Entry) RoutesResponse {
	if e == nil {
		return RoutesResponse{}
	}
	return RoutesResponse{
		VanityPath:   e.VanityPath.String,
		CustomDomain: e.CustomDomain.String,
	}
}
