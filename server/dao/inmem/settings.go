package inmem

import "context"

// SettingsRepository stores the settings bag as an opaque JSON blob.
type SettingsRepository struct {
	blob string
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) clear() {
	r.blob = ""
}

func (r *SettingsRepository) Load(ctx context.Context) (string, error) {
	return r.blob, nil
}

func (r *SettingsRepository) Save(ctx context.Context, json string) error {
	r.blob = json
	return nil
}
