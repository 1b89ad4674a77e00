package localcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/redis/go-redis/v9"
)

// submitLockTTL bounds how long a crashed submitter can hold a kind.
const submitLockTTL = 2 * time.Minute

// Redis keeps drafts as JSON strings without expiry.
type Redis struct {
	client    *redis.Client
	locker    *redislock.Client
	namespace string
}

func NewRedis(client *redis.Client, locker *redislock.Client, namespace string) *Redis {
	return &Redis{client: client, locker: locker, namespace: namespace}
}

func (s *Redis) Load(ctx context.Context, kind models.FormKind) (models.DraftRecord, bool) {
	data, err := s.client.Get(ctx, Key(s.namespace, kind)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			config.LogError(config.GetLogger(), "localcache", "Redis.Load", "Get", Key(s.namespace, kind), err)
		}
		return models.DraftRecord{}, false
	}
	return decodeRecord(kind, data)
}

func (s *Redis) Save(ctx context.Context, kind models.FormKind, rec models.DraftRecord) error {
	data, err := encodeRecord(kind, rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, Key(s.namespace, kind), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, kind, err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, kind models.FormKind) error {
	return s.client.Del(ctx, Key(s.namespace, kind)).Err()
}

func (s *Redis) ObtainSubmitLock(ctx context.Context, kind models.FormKind) (func(context.Context) error, error) {
	if s.locker == nil {
		return func(context.Context) error { return nil }, nil
	}
	lock, err := s.locker.Obtain(ctx, "lock:"+Key(s.namespace, kind), submitLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
