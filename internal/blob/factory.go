package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDriver       = "BTOCORE_BLOB_DRIVER"
	EnvFSRoot       = "BTOCORE_BLOB_FS_ROOT"
	EnvS3Bucket     = "BTOCORE_BLOB_S3_BUCKET"
	EnvS3Region     = "BTOCORE_BLOB_S3_REGION"
	EnvS3Endpoint   = "BTOCORE_BLOB_S3_ENDPOINT"
	EnvS3Prefix     = "BTOCORE_BLOB_S3_PREFIX"
	EnvS3PathStyle  = "BTOCORE_BLOB_S3_PATH_STYLE"
	envAWSAccessKey = "AWS_ACCESS_KEY_ID"
	envAWSSecretKey = "AWS_SECRET_ACCESS_KEY"
	envAWSSession   = "AWS_SESSION_TOKEN"
)

// Config selects and configures a blob driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// ConfigFromEnv reads the blob configuration:
//
//	BTOCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	BTOCORE_BLOB_FS_ROOT: directory when driver=fs (default ./exports)
//	BTOCORE_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PREFIX, _PATH_STYLE for s3
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)
func ConfigFromEnv() Config {
	driver := Driver(strings.ToLower(strings.TrimSpace(os.Getenv(EnvDriver))))
	if driver == "" {
		driver = DriverFilesystem
	}
	return Config{
		Driver: driver,
		FSRoot: os.Getenv(EnvFSRoot),
		S3: S3Config{
			Bucket:          os.Getenv(EnvS3Bucket),
			Region:          os.Getenv(EnvS3Region),
			Endpoint:        os.Getenv(EnvS3Endpoint),
			Prefix:          os.Getenv(EnvS3Prefix),
			PathStyle:       strings.EqualFold(os.Getenv(EnvS3PathStyle), "true"),
			AccessKeyID:     os.Getenv(envAWSAccessKey),
			SecretAccessKey: os.Getenv(envAWSSecretKey),
			SessionToken:    os.Getenv(envAWSSession),
		},
	}
}

// Open constructs the Store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("%s required for s3 driver", EnvS3Bucket)
		}
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// OpenFromEnv is Open(ctx, ConfigFromEnv()).
func OpenFromEnv(ctx context.Context) (Store, error) {
	return Open(ctx, ConfigFromEnv())
}
