package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage"
)

// maxProxyTxRetries bounds optimistic-lock retries in FindOrCreateProxy
const maxProxyTxRetries = 16

// Storage is a Redis-backed implementation of the store interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	return NewWithClient(redis.NewClient(opts), cfg), nil
}

// NewWithClient creates a Redis storage instance with an existing client
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{client: client, cfg: cfg}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Close releases the underlying client
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) CreateIdentity(ctx context.Context, id *model.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}

	// SETNX is the create-if-absent guard: the losing concurrent
	// registration sees created == false
	created, err := s.client.SetNX(ctx, identityKey(id.PublicID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrDuplicateID
	}

	return s.client.SAdd(ctx, kindIndexKey(id.Kind), string(id.PublicID)).Err()
}

func (s *Storage) GetIdentity(ctx context.Context, publicID model.PublicID) (*model.Identity, error) {
	data, err := s.client.Get(ctx, identityKey(publicID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *Storage) SaveIdentity(ctx context.Context, id *model.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}

	// XX: only overwrite an existing record
	saved, err := s.client.SetXX(ctx, identityKey(id.PublicID), data, 0).Result()
	if err != nil {
		return err
	}
	if !saved {
		return model.ErrIdentityNotFound
	}
	return nil
}

func (s *Storage) FindParticipantsByEmail(ctx context.Context, email string) ([]*model.Identity, error) {
	all, err := s.membersOf(ctx, participantIndexKey())
	if err != nil {
		return nil, err
	}

	var matches []*model.Identity
	for _, id := range all {
		if id.Profile.Email == email {
			matches = append(matches, id)
		}
	}
	return matches, nil
}

func (s *Storage) FindOrCreateProxy(ctx context.Context, owns func(*model.Identity) bool, create func() (*model.Identity, error)) (*model.Identity, error) {
	var result *model.Identity

	txn := func(tx *redis.Tx) error {
		result = nil

		ids, err := tx.SMembers(ctx, proxyIndexKey()).Result()
		if err != nil {
			return err
		}

		for _, raw := range ids {
			proxy, err := s.getWithin(ctx, tx, model.PublicID(raw))
			if err != nil {
				if errors.Is(err, model.ErrIdentityNotFound) {
					continue
				}
				return err
			}
			if owns(proxy) {
				result = proxy
				return nil
			}
		}

		// No proxy for this owner yet; create one inside the watched
		// transaction so a concurrent creation aborts us and we retry
		var proxy *model.Identity
		for {
			proxy, err = create()
			if err != nil {
				return err
			}
			exists, err := tx.Exists(ctx, identityKey(proxy.PublicID)).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				break
			}
		}

		data, err := json.Marshal(proxy)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, identityKey(proxy.PublicID), data, 0)
			pipe.SAdd(ctx, proxyIndexKey(), string(proxy.PublicID))
			return nil
		})
		if err != nil {
			return err
		}

		result = proxy
		return nil
	}

	for i := 0; i < maxProxyTxRetries; i++ {
		err := s.client.Watch(ctx, txn, proxyIndexKey())
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, errors.New("proxy creation transaction kept failing")
}

// membersOf loads every identity listed in a kind index set
func (s *Storage) membersOf(ctx context.Context, indexKey string) ([]*model.Identity, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = identityKey(model.PublicID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.Identity, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var id model.Identity
		if err := json.Unmarshal([]byte(val.(string)), &id); err != nil {
			continue
		}
		records = append(records, &id)
	}
	return records, nil
}

// getWithin reads an identity through a watched transaction connection
func (s *Storage) getWithin(ctx context.Context, tx *redis.Tx, publicID model.PublicID) (*model.Identity, error) {
	data, err := tx.Get(ctx, identityKey(publicID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// kindIndexKey selects the index set for an identity kind
func kindIndexKey(kind model.Kind) string {
	if kind == model.KindAnonymousProxy {
		return proxyIndexKey()
	}
	return participantIndexKey()
}
