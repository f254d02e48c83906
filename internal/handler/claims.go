package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/chunkward/internal/claim"
	"github.com/osse101/chunkward/internal/domain"
)

// ClaimResponse describes one chunk; Claimed is false for wilderness
type ClaimResponse struct {
	Chunk       domain.ChunkKey    `json:"chunk"`
	Claimed     bool               `json:"claimed"`
	Claim       *claim.Claim       `json:"claim,omitempty"`
	Invitations []claim.Invitation `json:"invitations,omitempty"`
}

// IdentityClaimsResponse lists an identity's claims together with its allowance
type IdentityClaimsResponse struct {
	Identity  domain.Identity `json:"identity_id"`
	Claims    []claim.Claim   `json:"claims"`
	Limit     claim.LimitInfo `json:"limit"`
	Remaining int             `json:"remaining"`
}

// HandleGetClaim answers GET /claims/{world}/{x}/{z} with chunk coordinates
func HandleGetClaim(claims claim.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := chunkKeyParam(w, r)
		if !ok {
			return
		}

		c, err := claims.ClaimInfo(r.Context(), key)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		resp := ClaimResponse{Chunk: key, Claimed: c != nil, Claim: c}
		if c != nil {
			resp.Invitations = claims.ListInvitations(key)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// HandleGetIdentityClaims answers GET /identities/{id}/claims
func HandleGetIdentityClaims(claims claim.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityParam(w, r)
		if !ok {
			return
		}

		limit := claims.Limit(id)
		list := claims.ClaimsOf(id)
		if list == nil {
			list = []claim.Claim{}
		}
		respondJSON(w, http.StatusOK, IdentityClaimsResponse{
			Identity:  id,
			Claims:    list,
			Limit:     limit,
			Remaining: limit.Remaining(),
		})
	}
}

func chunkKeyParam(w http.ResponseWriter, r *http.Request) (domain.ChunkKey, bool) {
	world := chi.URLParam(r, "world")
	if world == "" {
		respondError(w, http.StatusBadRequest, ErrMsgMissingWorld)
		return domain.ChunkKey{}, false
	}
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	if errX != nil || errZ != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidChunkCoord)
		return domain.ChunkKey{}, false
	}
	return domain.ChunkKey{World: world, X: x, Z: z}, true
}

func identityParam(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, err := domain.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil || id == domain.NilIdentity {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidIdentity)
		return domain.NilIdentity, false
	}
	return id, true
}
