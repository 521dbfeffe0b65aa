package remote

import (
	"context"
	"strconv"
	"time"

	"polyglot/internal/logger"
	"polyglot/internal/model"
)

// DefaultPollInterval is how often PollTransport asks for changes.
const DefaultPollInterval = 2 * time.Second

// PollTransport is the fallback transport for networks that cut long-lived
// responses: it asks GET /api/sync/:key?since=T on an interval.
type PollTransport struct {
	publisher
	interval time.Duration
}

func NewPollTransport(baseURL string, interval, timeout time.Duration) *PollTransport {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollTransport{
		publisher: publisher{http: newRESTClient(baseURL, timeout)},
		interval:  interval,
	}
}

// Subscribe fetches the current snapshot once, which also proves the server
// is reachable, then polls in the background until ctx is done.
func (p *PollTransport) Subscribe(ctx context.Context, key string, onUpdate func(model.Snapshot)) error {
	result, err := p.poll(ctx, key, 0)
	if err != nil {
		return err
	}
	if result.Changed && result.Snapshot != nil {
		onUpdate(*result.Snapshot)
	}
	go p.run(ctx, key, result.Timestamp, onUpdate)
	return nil
}

func (p *PollTransport) run(ctx context.Context, key string, since int64, onUpdate func(model.Snapshot)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		result, err := p.poll(ctx, key, since)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !failing {
				logger.Warn("sync poll failed", "module", "remote", "action", "poll", "resource", "sync", "result", "failed", "key", key, "error", err)
			}
			failing = true
			continue
		}
		if failing {
			logger.Info("sync poll recovered", "module", "remote", "action", "poll", "resource", "sync", "result", "ok", "key", key)
			failing = false
		}
		if !result.Changed || result.Snapshot == nil {
			continue
		}
		since = result.Timestamp
		onUpdate(*result.Snapshot)
	}
}

func (p *PollTransport) poll(ctx context.Context, key string, since int64) (model.PollResult, error) {
	var result model.PollResult
	var apiErr apiError
	r, err := p.http.R().
		SetContext(ctx).
		SetPathParam("key", key).
		SetQueryParam("since", strconv.FormatInt(since, 10)).
		SetResult(&result).
		SetError(&apiErr).
		Get(syncPath)
	if err != nil {
		return model.PollResult{}, networkError("poll", err)
	}
	if r.IsError() {
		return model.PollResult{}, statusError("poll", r, &apiErr)
	}
	return result, nil
}
