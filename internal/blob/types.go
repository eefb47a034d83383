// Package blob re-exports the artifact storage contract and selects a driver.
// Packages outside internal/blob depend on blob.Store only.
package blob

import (
	"btocore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures download links.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
	// ErrNotFound indicates no blob exists at the key.
	ErrNotFound = core.ErrNotFound
	// ErrExists indicates Put targeted a taken key.
	ErrExists = core.ErrExists
	// ErrInvalidKey indicates a malformed key.
	ErrInvalidKey = core.ErrInvalidKey
)
