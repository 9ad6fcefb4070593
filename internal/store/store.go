// Package store provides persistent backends for the bearer credential used by the request
// pipeline. Each backend keeps a single string value under a configurable key and
// implements client.CredentialStore.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/sdk/client"
)

// Store is a credential store that owns external resources.
type Store interface {
	client.CredentialStore
	Close() error
}

// memoryStore adapts the in-process credential holder to Store.
type memoryStore struct {
	*client.MemoryCredentials
}

func (memoryStore) Close() error { return nil }

// Open builds the store selected by cfg.TokenStore. Remote stores are connected and their
// schema or bucket is prepared before returning.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: config is nil")
	}
	key := strings.TrimSpace(cfg.TokenStore.Key)
	if key == "" {
		key = config.DefaultTokenKey
	}
	switch cfg.TokenStore.Type {
	case "", config.TokenStoreMemory:
		return memoryStore{client.NewMemoryCredentials("")}, nil
	case config.TokenStoreFile:
		return NewFileStore(cfg.TokenStore.Path, key)
	case config.TokenStorePostgres:
		pg, err := NewPostgresStore(ctx, PostgresStoreConfig{
			DSN:    cfg.PostgresStore.DSN,
			Schema: cfg.PostgresStore.Schema,
			Table:  cfg.PostgresStore.Table,
			Key:    key,
		})
		if err != nil {
			return nil, err
		}
		if err = pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	case config.TokenStoreObject:
		obj, err := NewObjectStore(ObjectStoreConfig{
			Endpoint:  cfg.ObjectStore.Endpoint,
			Bucket:    cfg.ObjectStore.Bucket,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Region:    cfg.ObjectStore.Region,
			Prefix:    cfg.ObjectStore.Prefix,
			UseSSL:    cfg.ObjectStore.UseSSL,
			PathStyle: cfg.ObjectStore.PathStyle,
			Key:       key,
		})
		if err != nil {
			return nil, err
		}
		if err = obj.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("store: unknown token store type %q", cfg.TokenStore.Type)
	}
}
