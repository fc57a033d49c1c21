package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mansoorceksport/hutraz/internal/domain"
)

// loadKey decodes key into dest. It reports false when the key was never written.
func loadKey(ctx context.Context, store domain.StateStore, key string, dest interface{}) (bool, error) {
	raw, err := store.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
