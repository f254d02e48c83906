package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/chunkward/internal/domain"
	"github.com/osse101/chunkward/internal/region"
)

// RegionsResponse lists every PvP region
type RegionsResponse struct {
	Regions []region.Region `json:"regions"`
}

// RegionAtResponse answers a point lookup
type RegionAtResponse struct {
	Position domain.BlockPos `json:"position"`
	InRegion bool            `json:"in_region"`
	Region   *region.Region  `json:"region,omitempty"`
}

// HandleListRegions answers GET /regions
func HandleListRegions(regions region.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := regions.List()
		if list == nil {
			list = []region.Region{}
		}
		respondJSON(w, http.StatusOK, RegionsResponse{Regions: list})
	}
}

// HandleGetRegion answers GET /regions/{name}
func HandleGetRegion(regions region.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := regions.Get(chi.URLParam(r, "name"))
		if reg == nil {
			respondServiceError(w, region.ErrRegionNotFound)
			return
		}
		respondJSON(w, http.StatusOK, reg)
	}
}

// HandleRegionAt answers GET /regions/at/{world}/{x}/{y}/{z} with block coordinates
func HandleRegionAt(regions region.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		world := chi.URLParam(r, "world")
		if world == "" {
			respondError(w, http.StatusBadRequest, ErrMsgMissingWorld)
			return
		}
		coords := make([]int, 3)
		for i, name := range []string{"x", "y", "z"} {
			v, err := strconv.Atoi(chi.URLParam(r, name))
			if err != nil {
				respondError(w, http.StatusBadRequest, ErrMsgInvalidBlockCoord)
				return
			}
			coords[i] = v
		}

		pos := domain.BlockPos{World: world, X: coords[0], Y: coords[1], Z: coords[2]}
		reg := regions.Contains(pos)
		respondJSON(w, http.StatusOK, RegionAtResponse{Position: pos, InRegion: reg != nil, Region: reg})
	}
}
