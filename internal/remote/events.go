package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"polyglot/internal/collab"
	"polyglot/internal/logger"
	"polyglot/internal/model"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
	maxEventSize      = 1 << 20
)

// EventTransport receives snapshots as server-sent events from
// GET /api/sync/:key/events and reconnects with backoff when the stream drops.
type EventTransport struct {
	publisher
	stream   *resty.Client
	minDelay time.Duration
	maxDelay time.Duration
}

// NewEventTransport creates a push transport. timeout applies to publishes
// only; the event stream stays open until the subscription ends.
func NewEventTransport(baseURL string, timeout time.Duration) *EventTransport {
	return &EventTransport{
		publisher: publisher{http: newRESTClient(baseURL, timeout)},
		stream:    newRESTClient(baseURL, 0),
		minDelay:  minReconnectDelay,
		maxDelay:  maxReconnectDelay,
	}
}

// Subscribe opens the stream and returns once the server has accepted it.
func (e *EventTransport) Subscribe(ctx context.Context, key string, onUpdate func(model.Snapshot)) error {
	body, err := e.connect(ctx, key)
	if err != nil {
		return err
	}
	go e.run(ctx, key, body, onUpdate)
	return nil
}

func (e *EventTransport) connect(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := e.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetPathParam("key", key).
		Get(eventsPath)
	if err != nil {
		return nil, networkError("subscribe", err)
	}
	body := r.RawBody()
	if r.StatusCode() != http.StatusOK {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("%w: subscribe: %s", collab.ErrNetwork, r.Status())
	}
	return body, nil
}

func (e *EventTransport) run(ctx context.Context, key string, body io.ReadCloser, onUpdate func(model.Snapshot)) {
	for {
		err := readEvents(body, func(ev event) {
			if ev.name != "" && ev.name != "snapshot" {
				return
			}
			var snapshot model.Snapshot
			if err := json.Unmarshal([]byte(ev.data), &snapshot); err != nil {
				logger.Warn("sync event undecodable", "module", "remote", "action", "subscribe", "resource", "sync", "result", "failed", "key", key, "error", err)
				return
			}
			onUpdate(snapshot)
		})
		body.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Warn("sync stream dropped", "module", "remote", "action", "subscribe", "resource", "sync", "result", "failed", "key", key, "error", err)

		if body = e.reconnect(ctx, key); body == nil {
			return
		}
		logger.Info("sync stream reconnected", "module", "remote", "action", "subscribe", "resource", "sync", "result", "ok", "key", key)
	}
}

// reconnect retries with doubling delays until it connects or ctx ends, in
// which case it returns nil.
func (e *EventTransport) reconnect(ctx context.Context, key string) io.ReadCloser {
	delay := e.minDelay
	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		body, err := e.connect(ctx, key)
		if err == nil {
			return body
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Debug("sync reconnect failed", "module", "remote", "action", "subscribe", "resource", "sync", "result", "failed", "key", key, "retry_in", delay, "error", err)
		delay = min(delay*2, e.maxDelay)
	}
}

type event struct {
	name string
	id   string
	data string
}

// readEvents parses a text/event-stream body, calling fn for each complete
// event. It returns when the stream ends, with io.EOF for a clean close.
func readEvents(r io.Reader, fn func(event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var ev event
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				ev.data = strings.Join(data, "\n")
				fn(ev)
			}
			ev, data = event{}, data[:0]
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.name = value
		case "id":
			ev.id = value
		case "data":
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
