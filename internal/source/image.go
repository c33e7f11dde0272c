package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// ImageSource serves still images and image sequences. A file location is a
// still with unbounded duration; a directory location is a sequence of its
// .png/.jpg files in name order, played at FPS.
type ImageSource struct {
	FPS float64

	decoded *lru.Cache[string, image.Image]
}

// NewImageSource returns a source keeping up to cacheSize decoded images.
func NewImageSource(fps float64, cacheSize int) (*ImageSource, error) {
	if fps <= 0 {
		fps = 25
	}
	c, err := lru.New[string, image.Image](max(cacheSize, 1))
	if err != nil {
		return nil, err
	}
	return &ImageSource{FPS: fps, decoded: c}, nil
}

// Frame implements Accessor.
func (s *ImageSource) Frame(ctx context.Context, location string, local float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, err := ListImages(location)
	if err != nil {
		return nil, err
	}
	return s.decode(paths[index(local, 1/s.FPS, len(paths))])
}

// Bounds implements Accessor.
func (s *ImageSource) Bounds(location string) (float64, float64, error) {
	fi, err := os.Stat(location)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", errdefs.ErrMissingSource, err)
	}
	if !fi.IsDir() {
		return 0, Unbounded, nil
	}
	paths, err := ListImages(location)
	if err != nil {
		return 0, 0, err
	}
	return 0, float64(len(paths)) / s.FPS, nil
}

func (s *ImageSource) decode(path string) (image.Image, error) {
	if img, ok := s.decoded.Get(path); ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrMissingSource, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errdefs.ErrMissingSource, path, err)
	}
	s.decoded.Add(path, img)
	return img, nil
}

// ListImages returns path itself for a file, or the .png/.jpg files of a
// directory in name order.
func ListImages(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrMissingSource, err)
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrMissingSource, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", errdefs.ErrMissingSource, path)
	}
	sort.Strings(paths)
	return paths, nil
}
