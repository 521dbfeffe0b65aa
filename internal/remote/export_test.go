package remote

import "time"

// SetReconnectDelayForTest shortens the stream reconnect backoff.
func (e *EventTransport) SetReconnectDelayForTest(minDelay, maxDelay time.Duration) {
	e.minDelay = minDelay
	e.maxDelay = maxDelay
}
