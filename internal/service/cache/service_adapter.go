package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "AgriPulse/pkg/cache"
)

// ServiceBytes adapts a pkg/cache Service (memory, redis, or layered) to the
// BytesCache API used by the HTTP handlers.
type ServiceBytes struct {
	svc pkgcache.Service
}

func NewServiceBytes(svc pkgcache.Service) *ServiceBytes {
	return &ServiceBytes{svc: svc}
}

func (s *ServiceBytes) GetBytes(key string) ([]byte, bool, error) {
	var b []byte
	err := s.svc.Get(context.Background(), key, &b)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *ServiceBytes) SetBytes(key string, value []byte, ttl time.Duration) error {
	return s.svc.Set(context.Background(), key, value, ttl)
}
