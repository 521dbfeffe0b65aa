package remote

import (
	"context"
	"errors"

	"polyglot/internal/collab"
	"polyglot/internal/model"
	"polyglot/internal/service"
)

// LocalTranslator runs translations in-process for a client that embeds the
// server's services instead of talking to one.
type LocalTranslator struct {
	service service.TranslationService
}

func NewLocalTranslator(translations service.TranslationService) *LocalTranslator {
	return &LocalTranslator{service: translations}
}

func (t *LocalTranslator) Translate(ctx context.Context, text, source string) (map[string]string, error) {
	out, err := t.service.Translate(ctx, text, source)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &collab.ProviderError{Message: err.Error()}
	}
	return out, nil
}

// LocalTransport is a collab.Transport backed directly by a SyncService.
type LocalTransport struct {
	service service.SyncService
}

func NewLocalTransport(sync service.SyncService) *LocalTransport {
	return &LocalTransport{service: sync}
}

func (t *LocalTransport) Publish(ctx context.Context, snapshot model.Snapshot) error {
	_, err := t.service.Publish(ctx, snapshot)
	return err
}

// Subscribe delivers the stored snapshot, if any, then every later write.
func (t *LocalTransport) Subscribe(ctx context.Context, key string, onUpdate func(model.Snapshot)) error {
	updates, unsubscribe := t.service.Subscribe(key)

	current, err := t.service.Get(ctx, key)
	switch {
	case err == nil:
		onUpdate(current)
	case !errors.Is(err, service.ErrNotFound):
		unsubscribe()
		return err
	}

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				onUpdate(snapshot)
			}
		}
	}()
	return nil
}
