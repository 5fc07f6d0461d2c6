// internal/app/features/communities/types.go
package communities

import (
	"strings"
	"time"

	"github.com/melodykit/melodyshare/internal/domain/models"
)

// communityPayload is the wire shape for one community, including the
// computed shareable onboarding link.
type communityPayload struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Members      int       `json:"members"`
	CreationDate time.Time `json:"creation_date"`
	ShareURL     string    `json:"share_url,omitempty"`
}

type userPayload struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	CommunityCode string `json:"communityCode"`
	IsGuest       bool   `json:"isGuest,omitempty"`
}

type createRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Guest    bool   `json:"guest,omitempty"`
}

type joinRequest struct {
	CodeOrID string `json:"code_or_id"`
	Username string `json:"username"`
	Guest    bool   `json:"guest,omitempty"`
}

type onboardResponse struct {
	Community communityPayload `json:"community"`
	User      userPayload      `json:"user"`
}

func (h *Handler) toPayload(c models.Community) communityPayload {
	p := communityPayload{
		ID:           c.ID.Hex(),
		Name:         c.Name,
		Code:         c.Code,
		Members:      c.Members,
		CreationDate: c.CreatedAt,
	}
	if h.BaseURL != "" {
		p.ShareURL = strings.TrimSuffix(h.BaseURL, "/") + "/onboarding?join=" + p.ID
	}
	return p
}

func (h *Handler) toPayloads(cs []models.Community) []communityPayload {
	out := make([]communityPayload, len(cs))
	for i, c := range cs {
		out[i] = h.toPayload(c)
	}
	return out
}

func toUserPayload(u models.User) userPayload {
	return userPayload{
		ID:            u.ID.Hex(),
		Username:      u.Username,
		CommunityCode: u.CommunityCode,
		IsGuest:       u.IsGuest,
	}
}
