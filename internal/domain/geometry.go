package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChunkShift is log2 of the chunk edge length in blocks.
const ChunkShift = 4

// ChunkSize is the edge length of a chunk in blocks.
const ChunkSize = 1 << ChunkShift

// ChunkKey identifies one chunk cell.
type ChunkKey struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Z     int    `json:"z"`
}

// ChunkOf returns the chunk containing the block column (blockX, blockZ).
// The arithmetic shift floors, so block -1 lands in chunk -1 and block -16 in chunk -1.
func ChunkOf(world string, blockX, blockZ int) ChunkKey {
	return ChunkKey{World: world, X: blockX >> ChunkShift, Z: blockZ >> ChunkShift}
}

// String renders the key as world:x:z, the form used as the persistence key.
func (k ChunkKey) String() string {
	return k.World + ":" + strconv.Itoa(k.X) + ":" + strconv.Itoa(k.Z)
}

// ParseChunkKey is the inverse of ChunkKey.String. World names may contain colons.
func ParseChunkKey(s string) (ChunkKey, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return ChunkKey{}, fmt.Errorf("%w: malformed chunk key %q", ErrInvalidInput, s)
	}
	j := strings.LastIndex(s[:i], ":")
	if j <= 0 {
		return ChunkKey{}, fmt.Errorf("%w: malformed chunk key %q", ErrInvalidInput, s)
	}
	x, err := strconv.Atoi(s[j+1 : i])
	if err != nil {
		return ChunkKey{}, fmt.Errorf("%w: malformed chunk x in %q", ErrInvalidInput, s)
	}
	z, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return ChunkKey{}, fmt.Errorf("%w: malformed chunk z in %q", ErrInvalidInput, s)
	}
	return ChunkKey{World: s[:j], X: x, Z: z}, nil
}

// BlockPos is an integer block position inside a world.
type BlockPos struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
}

// BlockAt floors a continuous position to the block that contains it.
func BlockAt(world string, x, y, z float64) BlockPos {
	return BlockPos{
		World: world,
		X:     int(math.Floor(x)),
		Y:     int(math.Floor(y)),
		Z:     int(math.Floor(z)),
	}
}

// Chunk returns the chunk containing the position.
func (p BlockPos) Chunk() ChunkKey {
	return ChunkOf(p.World, p.X, p.Z)
}
