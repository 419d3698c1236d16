package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/storage"
)

const maxFormValueBytes = 64 << 10

// Uploader spools multipart file fields to local disk before they are handed
// to the media delegate.
type Uploader struct {
	Dir      string
	MaxBytes int64
}

// form holds the text fields and spooled files of one request.
type form struct {
	values map[string]string
	files  map[string]*storage.Asset
}

func (f *form) value(key string) string {
	return strings.TrimSpace(f.values[key])
}

// optional returns nil when the field was not sent at all.
func (f *form) optional(key string) *string {
	v, ok := f.values[key]
	if !ok {
		return nil
	}
	return &v
}

func (f *form) file(key string) *storage.Asset {
	return f.files[key]
}

// cleanup removes every spooled file. The delegate has its own copy by the
// time a handler returns.
func (f *form) cleanup(ctx context.Context) {
	for field, asset := range f.files {
		if err := asset.Remove(); err != nil {
			logging.FromContext(ctx).Warn("failed to remove spooled upload", "field", field, "path", asset.Path, "error", err)
		}
	}
}

// parse reads a multipart body, spooling the expected file fields. Bodies of
// any other content type are read as a JSON object of text fields.
func (u Uploader) parse(w http.ResponseWriter, r *http.Request, fileFields map[string]storage.AssetKind) (*form, error) {
	f := &form{values: map[string]string{}, files: map[string]*storage.Asset{}}

	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := u.parseJSON(r, f); err != nil {
			return nil, err
		}
		return f, nil
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, apperr.Validation("invalid multipart body")
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.cleanup(r.Context())
			return nil, uploadReadError(err)
		}

		field := part.FormName()
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFormValueBytes+1))
			part.Close()
			if err != nil {
				f.cleanup(r.Context())
				return nil, uploadReadError(err)
			}
			if len(value) > maxFormValueBytes {
				f.cleanup(r.Context())
				return nil, apperr.Validation(fmt.Sprintf("form field %s is too large", field))
			}
			f.values[field] = string(value)
			continue
		}

		kind, wanted := fileFields[field]
		if !wanted || f.files[field] != nil {
			part.Close()
			continue
		}

		asset, err := u.spool(part.FileName(), part.Header.Get("Content-Type"), kind, part)
		part.Close()
		if err != nil {
			f.cleanup(r.Context())
			return nil, err
		}
		f.files[field] = asset
	}

	return f, nil
}

func (u Uploader) parseJSON(r *http.Request, f *form) error {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("invalid request body")
	}
	for key, value := range raw {
		if s, ok := value.(string); ok {
			f.values[key] = s
		}
	}
	return nil
}

func (u Uploader) spool(name, contentType string, kind storage.AssetKind, src io.Reader) (*storage.Asset, error) {
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, string(kind)+"/") {
		return nil, apperr.Validation("unsupported file type " + contentType)
	}

	dir := u.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Unknown(err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	file, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return nil, apperr.Unknown(err)
	}

	asset := &storage.Asset{Path: file.Name(), Name: filepath.Base(name), ContentType: contentType, Kind: kind}
	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		_ = asset.Remove()
		return nil, uploadReadError(err)
	}
	if err := file.Close(); err != nil {
		_ = asset.Remove()
		return nil, apperr.Unknown(err)
	}
	return asset, nil
}

func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation("upload exceeds the maximum allowed size")
	}
	return apperr.Validation("failed to read upload")
}
