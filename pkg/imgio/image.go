package imgio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/jpfielding/histeq.go/pkg/gray"
)

// Load decodes an image file, applying EXIF orientation, and converts it to luma
func Load(path string) (*gray.Buffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return gray.FromImage(img), nil
}

// Decode reads an image stream and converts it to luma
func Decode(r io.Reader) (*gray.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return gray.FromImage(img), nil
}

// Save writes a buffer in the format implied by the path extension, creating
// parent directories as needed
func Save(path string, b *gray.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := imaging.Save(b.Image(), path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// OutputName returns "<stem>_<suffix>.png" for a source image name
func OutputName(name, suffix string) string {
	return Stem(name) + "_" + suffix + ".png"
}

// Dir loads images by name from a directory
type Dir string

func (d Dir) Load(ctx context.Context, name string) (*gray.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(filepath.Join(string(d), name))
}
