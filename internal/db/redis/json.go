package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kwsearch/internal/db"
)

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Key: key, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Key: key, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// jsonMultiBatch caps how many JSON.GET commands go into one DoMulti pipeline.
const jsonMultiBatch = 256

// JSONGetMulti fetches whole documents for several keys, pipelining up to
// jsonMultiBatch commands per round trip. Keys deleted between scan and
// fetch come back as nil entries.
func (s *Store) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for lo := 0; lo < len(keys); lo += jsonMultiBatch {
		hi := min(lo+jsonMultiBatch, len(keys))
		if err := s.jsonGetBatch(ctx, keys[lo:hi], out[lo:hi]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) jsonGetBatch(ctx context.Context, keys []string, out [][]byte) error {
	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Arbitrary("JSON.GET").Keys(key).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		raw, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return &db.Error{Op: db.OpJSONGet, Key: keys[i], Err: err}
		}
		if raw != "" {
			out[i] = []byte(raw)
		}
	}
	return nil
}
