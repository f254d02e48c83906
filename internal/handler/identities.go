package handler

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/mode"
	"github.com/osse101/chunkward/internal/noob"
	"github.com/osse101/chunkward/internal/reputation"
)

// IdentityResponse is the placeholder view of one identity
type IdentityResponse struct {
	Identity domain.Identity `json:"identity_id"`
	Known    bool            `json:"known"`

	Mode                     domain.Mode `json:"mode"`
	ModeDisplay              string      `json:"mode_display"`
	FirstSeenAt              *time.Time  `json:"first_seen_at,omitempty"`
	LastModeChangeAt         *time.Time  `json:"last_mode_change_at,omitempty"`
	ModeCooldownRemainingSec int64       `json:"mode_cooldown_remaining_seconds"`

	Reputation         int               `json:"reputation"`
	ReputationStatus   reputation.Status `json:"reputation_status"`
	TotalPlaytimeHours float64           `json:"total_playtime_hours"`

	Noob             bool  `json:"noob"`
	NoobRemainingSec int64 `json:"noob_remaining_seconds"`
}

// HandleGetIdentity answers GET /identities/{id}
func HandleGetIdentity(modes mode.Service, ledger reputation.Service, noobs noob.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityParam(w, r)
		if !ok {
			return
		}

		resp := IdentityResponse{Identity: id, Mode: domain.ModeUnset}
		if rec, known := modes.Record(id); known {
			firstSeen := rec.FirstSeenAt
			resp.Known = true
			resp.Mode = rec.Mode
			resp.FirstSeenAt = &firstSeen
			resp.LastModeChangeAt = rec.LastModeChangeAt
			resp.ModeCooldownRemainingSec = int64(modes.CooldownRemaining(id).Seconds())
		}
		resp.ModeDisplay = DisplayName(string(resp.Mode))

		// Reads must not create ledger rows; an absent identity reports reputation 0
		rep, _ := ledger.Peek(id)
		resp.Reputation = rep.Reputation
		resp.ReputationStatus = rep.Status()
		resp.TotalPlaytimeHours = rep.TotalPlaytimeHours

		resp.Noob = noobs.IsNoobIdentity(id)
		resp.NoobRemainingSec = int64(noobs.Remaining(id).Seconds())

		respondJSON(w, http.StatusOK, resp)
	}
}

// DisplayName turns a stored constant such as PEACEFUL into Peaceful
func DisplayName(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}
