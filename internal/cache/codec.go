package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON loads key and decodes it into a new T. Missing keys return ErrCacheMiss.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	if s == nil {
		return nil, ErrCacheMiss
	}
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetJSON encodes v under key. A nil store or value is a no-op.
func SetJSON[T any](ctx context.Context, s Store, key string, v *T, ttl time.Duration) error {
	if s == nil || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}
