package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against struct tags plus the
// cross-field rules that tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	switch cfg.Storage.Type {
	case "filesystem", "badger":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for %s storage", cfg.Storage.Type)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for s3 storage")
		}
	}

	return nil
}
