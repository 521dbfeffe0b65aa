// Package remote connects a collab session to a polyglot server over HTTP.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"polyglot/internal/collab"
	"polyglot/internal/config"
	"polyglot/internal/model"
)

const (
	translatePath = "/api/translate"
	languagesPath = "/api/languages"
	syncPath      = "/api/sync/{key}"
	eventsPath    = "/api/sync/{key}/events"
)

// apiError covers both error shapes the server returns.
type apiError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type publishRequest struct {
	Translations   map[string]string `json:"translations"`
	ActiveLanguage string            `json:"activeLanguage"`
	Origin         string            `json:"origin,omitempty"`
}

func newRESTClient(baseURL string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", config.AppName+"/"+config.AppVersion)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

func networkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", collab.ErrNetwork, op, err)
}

func statusError(op string, r *resty.Response, body *apiError) error {
	msg := r.Status()
	if body != nil && body.Error != "" {
		msg = fmt.Sprintf("%s (%s)", msg, body.Error)
	}
	return fmt.Errorf("%w: %s: %s", collab.ErrNetwork, op, msg)
}

// publisher writes snapshots with PUT /api/sync/:key. Both transports use it.
type publisher struct {
	http *resty.Client
}

func (p publisher) Publish(ctx context.Context, snapshot model.Snapshot) error {
	var apiErr apiError
	r, err := p.http.R().
		SetContext(ctx).
		SetPathParam("key", snapshot.Key).
		SetBody(publishRequest{
			Translations:   snapshot.Translations,
			ActiveLanguage: snapshot.ActiveLanguage,
			Origin:         snapshot.Origin,
		}).
		SetError(&apiErr).
		Put(syncPath)
	if err != nil {
		return networkError("publish", err)
	}
	if r.IsError() {
		return statusError("publish", r, &apiErr)
	}
	return nil
}
