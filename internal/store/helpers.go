package store

import (
	"context"
	"errors"
	"strconv"
)

// Getter is satisfied by both Store and Tx
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
}

// GetInt64 reads an integer key, treating a missing key as zero
func GetInt64(ctx context.Context, g Getter, key string) (int64, error) {
	raw, err := g.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// HGetInt64 reads an integer hash field, treating a missing field as zero
func HGetInt64(ctx context.Context, s interface {
	HGet(ctx context.Context, key, field string) (string, error)
}, key, field string) (int64, error) {
	raw, err := s.HGet(ctx, key, field)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// FormatInt64 renders an integer for storage
func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
