package model

import "time"

// CachedTranslation is a provider result for one (source, target, text) triple.
type CachedTranslation struct {
	ID             int64
	SourceLanguage string
	TargetLanguage string
	SourceHash     string
	Text           string
	CreatedAt      time.Time
}
