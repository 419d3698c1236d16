package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUploadFailed indicates the delegate did not return a usable asset URL.
	ErrUploadFailed = errors.New("media upload failed")
	// ErrDeleteFailed indicates the delegate refused or failed to delete an asset.
	ErrDeleteFailed = errors.New("media delete failed")
	// ErrDelegateUnavailable indicates the delegate is failing fast after repeated errors.
	ErrDelegateUnavailable = errors.New("media delegate unavailable")
)

// AssetKind selects how the delegate stores an asset.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// Asset is a locally spooled upload waiting to be handed to the delegate.
type Asset struct {
	Path        string
	Name        string
	ContentType string
	Kind        AssetKind
}

// Ext returns the lower-cased extension of the original file name.
func (a Asset) Ext() string {
	ext := filepath.Ext(a.Name)
	if ext == "" {
		ext = filepath.Ext(a.Path)
	}
	return strings.ToLower(ext)
}

// Remove deletes the local spool file. Missing files are ignored.
func (a *Asset) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Uploaded describes an asset stored by the delegate.
type Uploaded struct {
	URL      string
	PublicID string
	// Duration is the media length in seconds; zero for images.
	Duration float64
}

// Delegate stores and deletes binary media on an external service.
type Delegate interface {
	Upload(ctx context.Context, asset Asset) (Uploaded, error)
	Delete(ctx context.Context, url string) error
}
