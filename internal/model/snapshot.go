package model

// Snapshot is the shared-store record for one sync key. Every write
// replaces the previous record as a whole.
type Snapshot struct {
	Key            string            `json:"key"`
	Translations   map[string]string `json:"translations"`
	ActiveLanguage string            `json:"activeLanguage"`
	// Timestamp is assigned by the store in unix milliseconds and only grows.
	Timestamp int64  `json:"timestamp"`
	Origin    string `json:"origin,omitempty"`
}

// Clone returns a deep copy so callers can hand snapshots across goroutines.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Translations = make(map[string]string, len(s.Translations))
	for k, v := range s.Translations {
		out.Translations[k] = v
	}
	return out
}

// PollResult answers "anything changed since T" for the polling transport.
type PollResult struct {
	Changed   bool      `json:"changed"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
	Timestamp int64     `json:"timestamp"`
}
