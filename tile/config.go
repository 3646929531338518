// SPDX-License-Identifier: Unlicense OR MIT

package tile

// Config collects the engine's tunables. The zero value is never valid
// to use directly; call DefaultConfig and override individual fields, or
// decode one from TOML at the application layer (see cmd/tilecache-demo).
type Config struct {
	// QuantizeScale is the sub-pixel quantization scale passed to
	// CornersCache (default: 4, quarter-pixel precision).
	QuantizeScale float32
	// MaxEntriesPerLeaf bounds how many primitives a quadtree leaf holds
	// before it splits.
	MaxEntriesPerLeaf int
	// MaxQuadTreeDepth bounds how deep a quadtree leaf can split.
	MaxQuadTreeDepth int
	// CompareCacheCapacity bounds the comparison memo cache's size.
	CompareCacheCapacity int
	// TileSize is the default width/height, in local-space units, used
	// to construct a tile's local rect when the host doesn't supply one
	// of its own.
	TileSize float32
}

// DefaultConfig returns the engine's default tunables.
func DefaultConfig() Config {
	return Config{
		QuantizeScale:        QuantizeScale,
		MaxEntriesPerLeaf:    8,
		MaxQuadTreeDepth:     4,
		CompareCacheCapacity: 4096,
		TileSize:             256,
	}
}
