package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sequenceFile = "group_seq"

var seqMu sync.Mutex

// incrIfExists never creates the key, so a flushed or evicted counter is
// reported as -1 instead of restarting at 1.
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("INCR", KEYS[1])
end
return -1
`)

// NewRedisGroupSequence keeps the counter in key. Whenever the key is missing
// it is seeded with the value returned by seed, so losing the key never hands
// out a group that already has files.
func NewRedisGroupSequence(client *redis.Client, key string, seed func() (int64, error)) GroupSequence {
	return &redisGroupSequence{client: client, key: key, seed: seed}
}

func (s *redisGroupSequence) reseed(ctx context.Context) error {
	var start int64
	if s.seed != nil {
		var err error
		if start, err = s.seed(); err != nil {
			return fmt.Errorf("seed group sequence: %w", err)
		}
	}
	created, err := s.client.SetNX(ctx, s.key, start, 0).Result()
	if err != nil {
		return fmt.Errorf("seed group sequence: %w", err)
	}
	if created {
		logrus.WithFields(logrus.Fields{"key": s.key, "value": start}).Info("group sequence seeded")
	}
	return nil
}

func (s *redisGroupSequence) Next(ctx context.Context) (int64, error) {
	n, err := incrIfExists.Run(ctx, s.client, []string{s.key}).Int64()
	if err != nil {
		return 0, fmt.Errorf("allocate group: %w", err)
	}
	if n >= 0 {
		return n, nil
	}

	if err := s.reseed(ctx); err != nil {
		return 0, err
	}
	n, err = s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate group: %w", err)
	}
	return n, nil
}

func (s *redisGroupSequence) Current(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := s.reseed(ctx); err != nil {
			return 0, err
		}
		n, err = s.client.Get(ctx, s.key).Int64()
	}
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read group: %w", err)
	}
	return n, nil
}

// NewLocalGroupSequence keeps the counter in memory and persists it next to the
// images after every allocation. It starts from the persisted value, or from a
// scan of existing files on first use.
func NewLocalGroupSequence(fs storage.FileStorage) GroupSequence {
	return &localGroupSequence{storage: fs}
}

func (s *localGroupSequence) load() error {
	if s.loaded {
		return nil
	}

	data, err := s.storage.ReadFile(sequenceFile)
	switch {
	case err == nil:
		n, perr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if perr != nil {
			return fmt.Errorf("corrupt %s: %w", sequenceFile, perr)
		}
		s.value = n
	case errors.Is(err, fs.ErrNotExist):
		n, serr := storage.MaxGroup(s.storage)
		if serr != nil {
			return serr
		}
		s.value = n
	default:
		return err
	}

	s.loaded = true
	return nil
}

func (s *localGroupSequence) Next(_ context.Context) (int64, error) {
	seqMu.Lock()
	defer seqMu.Unlock()

	if err := s.load(); err != nil {
		return 0, err
	}
	next := s.value + 1
	if err := s.storage.Save(sequenceFile, strings.NewReader(strconv.FormatInt(next, 10))); err != nil {
		return 0, fmt.Errorf("persist group sequence: %w", err)
	}
	s.value = next
	return next, nil
}

func (s *localGroupSequence) Current(_ context.Context) (int64, error) {
	seqMu.Lock()
	defer seqMu.Unlock()

	if err := s.load(); err != nil {
		return 0, err
	}
	return s.value, nil
}
