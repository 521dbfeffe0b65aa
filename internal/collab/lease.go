package collab

import "time"

// Lease marks a window during which remote-applied state must not be
// published back, and further remote updates are held off. It expires on its
// own even if the release callback never runs.
type Lease struct {
	clock   Clock
	token   uint64
	expires time.Time
	held    bool
}

// NewLease returns a free lease timed by clock.
func NewLease(clock Clock) *Lease {
	return &Lease{clock: clock}
}

// Acquire takes the lease for d and returns the token that releases it.
func (l *Lease) Acquire(d time.Duration) uint64 {
	l.token++
	l.held = true
	l.expires = l.clock.Now().Add(d)
	return l.token
}

// Held reports whether the lease is taken and not yet expired.
func (l *Lease) Held() bool {
	return l.held && l.clock.Now().Before(l.expires)
}

// Release frees the lease if token is the current one. A stale token from an
// earlier acquisition is ignored.
func (l *Lease) Release(token uint64) bool {
	if !l.held || token != l.token {
		return false
	}
	l.held = false
	return true
}
