package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/1rvyn/story-builder/models"
)

//go:embed seed.toml
var seedTOML []byte

// Seed is the on-disk catalog format.
type Seed struct {
	Assets []models.CatalogAsset `toml:"asset"`
}

// DefaultSeed returns the catalog shipped with the binary.
func DefaultSeed() (Seed, error) {
	return ParseSeed(seedTOML)
}

// LoadSeed reads a TOML catalog from path. An empty path loads the
// embedded default.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read catalog seed '%s': %w", path, err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := toml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	for i, a := range s.Assets {
		if _, ok := models.ParseAssetType(a.Category); !ok {
			return Seed{}, fmt.Errorf("asset %d (%s): %w %q", i+1, a.Name, ErrUnknownCategory, a.Category)
		}
	}
	return s, nil
}
