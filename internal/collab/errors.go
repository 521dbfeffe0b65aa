package collab

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks transport-level failures talking to the provider or
	// the sync store.
	ErrNetwork = errors.New("network error")
	// ErrConfiguration marks an invalid session setup or an unreachable sync
	// store at startup.
	ErrConfiguration = errors.New("configuration error")
	ErrClosed        = errors.New("session closed")
)

// ProviderError is a failure reported by the translation provider itself.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return "translation provider: " + e.Message
}

// NoticeKind classifies a user-visible notice.
type NoticeKind int

const (
	NoticeProvider NoticeKind = iota
	NoticeNetwork
	NoticeConfiguration
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeProvider:
		return "provider"
	case NoticeNetwork:
		return "network"
	case NoticeConfiguration:
		return "configuration"
	default:
		return fmt.Sprintf("NoticeKind(%d)", int(k))
	}
}

// Notice is a transient, non-fatal problem worth showing to the user.
type Notice struct {
	Kind     NoticeKind
	Language string // source column, when the notice concerns a translation
	Err      error
}

func (n Notice) String() string {
	switch n.Kind {
	case NoticeProvider:
		return "Translation failed. Please try again."
	case NoticeNetwork:
		if n.Err == nil {
			return "Network problem"
		}
		return "Network problem: " + n.Err.Error()
	default:
		return "Sync unavailable, working on this device only"
	}
}

func classify(err error) NoticeKind {
	var pe *ProviderError
	switch {
	case errors.As(err, &pe):
		return NoticeProvider
	case errors.Is(err, ErrConfiguration):
		return NoticeConfiguration
	case errors.Is(err, ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return NoticeNetwork
	default:
		return NoticeProvider
	}
}
