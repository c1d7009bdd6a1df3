package etymolog

import (
	"context"
	"encoding/json"

	"github.com/etymolog/etymolog/internal/settings"
	"github.com/etymolog/etymolog/server/serr"
)

// GetSettings returns the current settings bag.
func (e *Engine) GetSettings() (settings.Settings, error) {
	if err := e.requireReady(); err != nil {
		return settings.Settings{}, err
	}
	return e.settings.Get(), nil
}

// UpdateSettings applies a partial update to the settings bag,
// persists the new bag, and notifies subscribers. apply receives the
// current settings and must return the updated value.
func (e *Engine) UpdateSettings(ctx context.Context, apply func(settings.Settings) settings.Settings) (settings.Settings, error) {
	if err := e.requireReady(); err != nil {
		return settings.Settings{}, err
	}
	updated := e.settings.Update(apply)
	if err := e.persistSettings(ctx, updated); err != nil {
		return settings.Settings{}, err
	}
	e.touchPersisted()
	return updated, nil
}

// ResetSettings restores the recognized option defaults, persists them,
// and notifies subscribers.
func (e *Engine) ResetSettings(ctx context.Context) (settings.Settings, error) {
	if err := e.requireReady(); err != nil {
		return settings.Settings{}, err
	}
	updated := e.settings.Reset()
	if err := e.persistSettings(ctx, updated); err != nil {
		return settings.Settings{}, err
	}
	e.touchPersisted()
	return updated, nil
}

func (e *Engine) persistSettings(ctx context.Context, s settings.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return serr.OperationFailed("marshaling settings", err)
	}
	if err := e.store.Settings().Save(ctx, string(raw)); err != nil {
		return serr.OperationFailed("persisting settings", err)
	}
	return nil
}

// SubscribeSettings registers a new settings listener; see
// internal/settings.Bag.Subscribe for the delivery contract (buffered
// with capacity 1, non-blocking; an update made while the previous
// notification is still unconsumed is not delivered).
func (e *Engine) SubscribeSettings() (<-chan settings.Settings, func()) {
	return e.settings.Subscribe()
}
