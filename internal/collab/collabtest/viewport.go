package collabtest

import "sync"

// Viewport counts scroll-to-bottom requests.
type Viewport struct {
	mu      sync.Mutex
	instant int
	smooth  int
}

func (v *Viewport) ScrollToBottom(smooth bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if smooth {
		v.smooth++
	} else {
		v.instant++
	}
}

// Counts returns the number of instant and smooth scrolls so far.
func (v *Viewport) Counts() (instant, smooth int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.instant, v.smooth
}
