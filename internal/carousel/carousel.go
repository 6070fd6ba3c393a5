// Package carousel rotates the featured slides shown on the site pages.
package carousel

import (
	"fmt"
	"sync"
)

// Slide is one featured entry.
type Slide struct {
	Title string `yaml:"title" json:"title"`
	Image string `yaml:"image" json:"image,omitempty"`
	Href  string `yaml:"href" json:"href,omitempty"`
}

// Carousel tracks the displayed slide. Safe for concurrent use.
type Carousel struct {
	mu     sync.RWMutex
	slides []Slide
	idx    int
}

// New creates a carousel showing the first slide.
func New(slides []Slide) *Carousel {
	return &Carousel{slides: append([]Slide(nil), slides...)}
}

// Advance moves to the next slide, wrapping around, and returns the new
// index. With zero slides it does nothing and returns 0.
func (c *Carousel) Advance() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return 0
	}
	c.idx = (c.idx + 1) % len(c.slides)
	return c.idx
}

// Index returns the displayed slide index.
func (c *Carousel) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx
}

// Len returns the number of slides.
func (c *Carousel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slides)
}

// Current returns the displayed slide, or false if there are none.
func (c *Carousel) Current() (Slide, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.slides) == 0 {
		return Slide{}, false
	}
	return c.slides[c.idx], true
}

// Slides returns a copy of all slides.
func (c *Carousel) Slides() []Slide {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Slide(nil), c.slides...)
}

// Offset is the CSS transform that brings the displayed slide into view.
func (c *Carousel) Offset() string {
	return fmt.Sprintf("translateX(-%d%%)", c.Index()*100)
}
