package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

// ImageCache provides thread-safe caching of decoded photos so zoom and
// annotate requests do not re-read the file.
//
// Photos are decoded with EXIF auto-orientation applied, so the cached image
// has the same orientation the clinician saw when placing landmarks. Cached
// images stay in memory until Evict or Clear is called.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/photos/patient-0042-top.jpg")
//	if err != nil {
//	    return err
//	}
//	defer cache.Evict("/photos/patient-0042-top.jpg")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a photo from the cache or decodes it from disk.
//
// Supported formats are the ones registered by the imaging library (JPEG,
// PNG, GIF, TIFF and BMP). The cache key is the exact path string, so a
// relative and an absolute path to the same file are cached separately.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Contains reports whether path is cached.
func (c *ImageCache) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.images[path]
	return ok
}

// Clear removes all photos from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes one photo from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// PhotoInfo contains metadata about a loaded photo.
type PhotoInfo struct {
	// Path is the file the photo was loaded from.
	Path string `json:"path"`

	// Width is the displayed width in pixels, after auto-orientation.
	Width int `json:"width"`

	// Height is the displayed height in pixels, after auto-orientation.
	Height int `json:"height"`

	// Format is derived from the file extension: "jpeg", "png", "gif",
	// "tiff", "bmp" or "unknown".
	Format string `json:"format"`

	// HasAlpha reports whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Geometry returns the photo's display geometry for distance computations.
func (p *PhotoInfo) Geometry() cranial.Geometry {
	return cranial.Geometry{Width: p.Width, Height: p.Height}
}

// LoadPhotoInfo loads a photo into the cache (if not already cached) and
// returns its metadata.
func LoadPhotoInfo(cache *ImageCache, path string) (*PhotoInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	} else if !errors.Is(err, imaging.ErrUnsupportedFormat) {
		return nil, err
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &PhotoInfo{
		Path:          path,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
