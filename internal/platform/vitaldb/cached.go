package vitaldb

import (
	"context"

	"github.com/vitallab/vitallab/internal/platform/cache"
)

// CachedSource reads resources through cache loaders. It is meant for the
// read path; synchronization always talks to the upstream directly.
//
// The list resources (cases, trks, labs) go through lists. Track payloads go
// through tracks, which should be backed by an expiring store; a nil tracks
// loader fetches every track payload from the upstream.
type CachedSource struct {
	src    Source
	lists  *cache.Loader
	tracks *cache.Loader
}

func NewCachedSource(src Source, lists, tracks *cache.Loader) *CachedSource {
	return &CachedSource{src: src, lists: lists, tracks: tracks}
}

func (s *CachedSource) Fetch(ctx context.Context, resource string) (string, error) {
	loader := s.lists
	if resourceKind(resource) == "track_data" {
		loader = s.tracks
	}
	if loader == nil {
		return s.src.Fetch(ctx, resource)
	}

	b, err := loader.Load(ctx, "vitaldb:"+resource, func(ctx context.Context) ([]byte, error) {
		text, err := s.src.Fetch(ctx, resource)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
