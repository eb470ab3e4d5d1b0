package store

// Config selects and parameterizes the interaction store backend.
type Config struct {
	// Type selects the backend.
	// Valid values: memory, filesystem, badger, s3
	Type string `mapstructure:"type" validate:"omitempty,oneof=memory filesystem badger s3" yaml:"type"`

	// Path is the root directory for the filesystem backend and the database
	// directory for the badger backend.
	// Default: ./recordings
	Path string `mapstructure:"path" yaml:"path"`

	// S3 configures the s3 backend. Ignored for other types.
	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config holds connection settings for the S3 backend.
// Works with AWS S3 and S3-compatible services (MinIO, localstack).
type S3Config struct {
	// Bucket is the bucket holding recordings (required for type: s3).
	// The bucket must already exist.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region.
	// Default: us-east-1
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the S3 endpoint URL for S3-compatible services.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// AccessKeyID and SecretAccessKey are static credentials. When empty the
	// default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	// KeyPrefix is prepended to every object key.
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// ForcePathStyle enables path-style addressing, required by most
	// S3-compatible services.
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}
