package binfmt

import (
	"bytes"
	"fmt"
	"image"

	_ "github.com/ftrvxmtrx/tga" // registers the "tga" image format
)

// ValidateTGA decodes a TGA image far enough to confirm it is structurally
// well formed, returning its pixel dimensions. Corrupt textures are a
// recurring cause of client crashes, so the pk3 indexer runs this cheap
// structural check on every .tga entry and records a failure as that
// entry's error.
func ValidateTGA(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid tga: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
