package source

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ivlev/framecomp/internal/errdefs"
)

type pageKey struct {
	path string
	page int
}

// PDFSource shows one page per PageDuration seconds, rasterized at DPI. A
// location ending in "#N" selects page N (zero-based) as a still.
type PDFSource struct {
	PageDuration float64
	DPI          int

	mu     sync.Mutex
	counts map[string]int
	pages  *lru.Cache[pageKey, image.Image]
}

// NewPDFSource returns a PDF source keeping up to cacheSize rendered pages.
func NewPDFSource(pageDuration float64, dpi, cacheSize int) (*PDFSource, error) {
	if pageDuration <= 0 {
		pageDuration = 5
	}
	if dpi <= 0 {
		dpi = 150
	}
	c, err := lru.New[pageKey, image.Image](max(cacheSize, 1))
	if err != nil {
		return nil, err
	}
	return &PDFSource{
		PageDuration: pageDuration,
		DPI:          dpi,
		counts:       make(map[string]int),
		pages:        c,
	}, nil
}

// PageCount returns the number of pages in the document at path.
func (s *PDFSource) PageCount(path string) (int, error) {
	s.mu.Lock()
	n, ok := s.counts[path]
	s.mu.Unlock()
	if ok {
		return n, nil
	}

	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errdefs.ErrMissingSource, err)
	}
	defer doc.Close()
	n = doc.NumPage()

	s.mu.Lock()
	s.counts[path] = n
	s.mu.Unlock()
	return n, nil
}

// splitPage separates a "#N" page selector from the document path.
func splitPage(location string) (path string, page int, still bool, err error) {
	path, sel, ok := strings.Cut(location, "#")
	if !ok {
		return location, 0, false, nil
	}
	page, err = strconv.Atoi(sel)
	if err != nil || page < 0 {
		return "", 0, false, fmt.Errorf("%w: bad page selector in %q", errdefs.ErrMissingSource, location)
	}
	return path, page, true, nil
}

// PageRef returns the location of a single page of the document at path.
func PageRef(path string, page int) string {
	return path + "#" + strconv.Itoa(page)
}

// Frame implements Accessor.
func (s *PDFSource) Frame(ctx context.Context, location string, local float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, page, still, err := splitPage(location)
	if err != nil {
		return nil, err
	}
	n, err := s.PageCount(path)
	if err != nil {
		return nil, err
	}
	if still && page >= n {
		return nil, fmt.Errorf("%w: page %d of %s (%d pages)", errdefs.ErrMissingSource, page, path, n)
	}
	if !still {
		page = index(local, s.PageDuration, n)
	}
	key := pageKey{path, page}
	if img, ok := s.pages.Get(key); ok {
		return img, nil
	}

	// A document handle per render keeps concurrent layers independent.
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrMissingSource, err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(key.page, float64(s.DPI))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d of %s: %v", errdefs.ErrMissingSource, key.page, path, err)
	}
	s.pages.Add(key, img)
	return img, nil
}

// Bounds implements Accessor.
func (s *PDFSource) Bounds(location string) (float64, float64, error) {
	path, page, still, err := splitPage(location)
	if err != nil {
		return 0, 0, err
	}
	n, err := s.PageCount(path)
	if err != nil {
		return 0, 0, err
	}
	if still {
		if page >= n {
			return 0, 0, fmt.Errorf("%w: page %d of %s (%d pages)", errdefs.ErrMissingSource, page, path, n)
		}
		return 0, Unbounded, nil
	}
	return 0, float64(n) * s.PageDuration, nil
}
