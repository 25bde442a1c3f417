package slideshow

import "testing"

func TestCarouselWrapsAround(t *testing.T) {
	t.Parallel()

	var c Carousel
	c.Reload([]string{"a.jpg", "b.jpg", "c.jpg"})

	want := []string{"a.jpg", "b.jpg", "c.jpg", "a.jpg"}
	for i, w := range want {
		if got := c.Current(); got != w {
			t.Errorf("step %d: Current = %q, want %q", i, got, w)
		}
		c.Advance()
	}
}

func TestCarouselEmpty(t *testing.T) {
	t.Parallel()

	var c Carousel
	if got := c.Current(); got != "" {
		t.Errorf("empty carousel Current = %q, want empty", got)
	}
	c.Advance() // must not panic
	if got := c.Len(); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
}

func TestReloadResetsPosition(t *testing.T) {
	t.Parallel()

	var c Carousel
	c.Reload([]string{"a.jpg", "b.jpg"})
	c.Advance()
	if got := c.Current(); got != "b.jpg" {
		t.Fatalf("Current = %q, want b.jpg", got)
	}

	c.Reload([]string{"x.jpg", "y.jpg"})
	if got := c.Current(); got != "x.jpg" {
		t.Errorf("Current after reload = %q, want x.jpg", got)
	}
}
