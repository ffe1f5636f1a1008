package imgio

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCount is returned by Select for a count that is not a number in range or "all"
	ErrInvalidCount = errors.New("invalid image count")
	// ErrNoImages is returned by Select when the directory holds no supported image
	ErrNoImages = errors.New("no images found")
)

// Extensions are the file suffixes List accepts, lower case
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif", ".gif"}

// Supported reports whether a file name has an image extension, ignoring case
func Supported(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// List returns the image file names in dir. Numeric stems come first in
// numeric order ("2.jpg" before "10.jpg"); other names follow lexically.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	SortNames(names)
	return names, nil
}

// SortNames orders names the way List does
func SortNames(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		na, errA := strconv.ParseInt(Stem(a), 10, 64)
		nb, errB := strconv.ParseInt(Stem(b), 10, 64)
		switch {
		case errA == nil && errB == nil:
			if c := cmp.Compare(na, nb); c != 0 {
				return c
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return strings.Compare(a, b)
	})
}

// Stem returns the base name without its extension
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Select picks the first count names. count is a positive integer no larger
// than len(names), or "all"/"todas" (case-insensitive, also the empty string).
func Select(names []string, count string) ([]string, error) {
	if len(names) == 0 {
		return nil, ErrNoImages
	}
	count = strings.TrimSpace(count)
	switch strings.ToLower(count) {
	case "", "all", "todas":
		return names, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return nil, fmt.Errorf("%w: %q, expected a number between 1 and %d or 'all'", ErrInvalidCount, count, len(names))
	}
	if n < 1 || n > len(names) {
		return nil, fmt.Errorf("%w: %d, expected a number between 1 and %d or 'all'", ErrInvalidCount, n, len(names))
	}
	return names[:n], nil
}
