package config

import (
	"context"
	"fmt"

	"github.com/replayd/replayd/pkg/store"
	"github.com/replayd/replayd/pkg/store/badgerstore"
	"github.com/replayd/replayd/pkg/store/filesystem"
	"github.com/replayd/replayd/pkg/store/memory"
	"github.com/replayd/replayd/pkg/store/s3"
)

// CreateStore instantiates the interaction store selected by the storage
// configuration. The returned label names the backend for logs and metrics.
func CreateStore(ctx context.Context, cfg store.Config) (store.Store, string, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), "memory", nil

	case "filesystem":
		st, err := filesystem.New(cfg.Path)
		if err != nil {
			return nil, "", err
		}
		return st, "filesystem", nil

	case "badger":
		st, err := badgerstore.New(cfg.Path)
		if err != nil {
			return nil, "", err
		}
		return st, "badger", nil

	case "s3":
		client, err := s3.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, "", err
		}
		st, err := s3.New(client, cfg.S3.Bucket, cfg.S3.KeyPrefix)
		if err != nil {
			return nil, "", err
		}
		return st, "s3", nil

	default:
		return nil, "", fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
