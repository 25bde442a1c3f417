// Package slideshow rotates through the photo URLs served by the script
// endpoint's photos route.
package slideshow

import (
	"context"
	"sync"
	"time"

	appLog "calpane/internal/log"
)

// PhotoFetcher provides the photo URL list.
type PhotoFetcher interface {
	FetchPhotos(ctx context.Context) ([]string, error)
}

// Carousel holds the photo list and the rotation position. The zero value is
// usable and reports no current photo until Reload succeeds.
type Carousel struct {
	mu     sync.Mutex
	photos []string
	idx    int
}

// Reload replaces the photo list. The position resets so a changed list
// starts from its first photo.
func (c *Carousel) Reload(photos []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.photos = photos
	c.idx = 0
}

// Advance moves to the next photo, wrapping at the end.
func (c *Carousel) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.photos) == 0 {
		return
	}
	c.idx = (c.idx + 1) % len(c.photos)
}

// Current returns the active photo URL, or "" when no photos are loaded.
func (c *Carousel) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.photos) == 0 {
		return ""
	}
	return c.photos[c.idx]
}

// Len returns the number of loaded photos.
func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.photos)
}

// Run fetches the photo list once, then advances the carousel on the given
// interval until ctx is done. A fetch failure leaves the slideshow empty;
// the panel simply renders without a photo pane.
func (c *Carousel) Run(ctx context.Context, fetcher PhotoFetcher, interval time.Duration) {
	photos, err := fetcher.FetchPhotos(ctx)
	if err != nil {
		appLog.Warn("slideshow photos unavailable", "err", err)
		return
	}
	c.Reload(photos)
	appLog.Info("slideshow loaded", "photos", len(photos), "interval", interval)
	if len(photos) < 2 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Advance()
		case <-ctx.Done():
			return
		}
	}
}
