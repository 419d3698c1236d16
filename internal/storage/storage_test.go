package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/vidtube/backend/internal/logging"
)

type stubProber struct {
	duration float64
	err      error
	paths    []string
}

func (s *stubProber) Duration(_ context.Context, path string) (float64, error) {
	s.paths = append(s.paths, path)
	return s.duration, s.err
}

func writeTempAsset(t *testing.T, name string, kind AssetKind) Asset {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o600); err != nil {
		t.Fatalf("write temp asset: %v", err)
	}
	return Asset{Path: path, Name: name, ContentType: "application/octet-stream", Kind: kind}
}

func TestFFProbeDuration(t *testing.T) {
	probe := NewFFProbe("ffprobe", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		wantArgs := []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "/tmp/clip.mp4"}
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary %q", binary)
		}
		if len(args) != len(wantArgs) {
			t.Fatalf("unexpected args length: got %d want %d", len(args), len(wantArgs))
		}
		for i, arg := range wantArgs {
			if args[i] != arg {
				t.Fatalf("unexpected arg at %d: got %q want %q", i, args[i], arg)
			}
		}
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	duration, err := probe.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if duration != 12.48 {
		t.Fatalf("unexpected duration %v", duration)
	}
}

func TestFFProbeDurationFailures(t *testing.T) {
	cases := []struct {
		name string
		out  string
		err  error
	}{
		{name: "command error", err: errors.New("exit status 1")},
		{name: "empty payload", out: `{"format":{}}`},
		{name: "bad json", out: `not-json`},
		{name: "bad number", out: `{"format":{"duration":"N/A"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			probe := NewFFProbe("", 0)
			probe.Run = func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tc.out), tc.err
			}
			if _, err := probe.Duration(context.Background(), "clip.mp4"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

type fakeCloudinary struct {
	uploadResult  *uploader.UploadResult
	uploadErr     error
	uploadParams  uploader.UploadParams
	destroyResult *uploader.DestroyResult
	destroyErr    error
	destroyParams uploader.DestroyParams
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = params
	return f.uploadResult, f.uploadErr
}

func (f *fakeCloudinary) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyParams = params
	return f.destroyResult, f.destroyErr
}

func TestCloudinaryUpload(t *testing.T) {
	api := &fakeCloudinary{uploadResult: &uploader.UploadResult{
		PublicID:  "vidtube/clip",
		SecureURL: "https://res.cloudinary.com/demo/video/upload/v1/vidtube/clip.mp4",
	}}
	prober := &stubProber{duration: 42.5}
	store := &CloudinaryStorage{api: api, prober: prober, folder: "vidtube"}

	asset := writeTempAsset(t, "clip.mp4", AssetVideo)
	uploaded, err := store.Upload(context.Background(), asset)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uploaded.URL != api.uploadResult.SecureURL || uploaded.Duration != 42.5 {
		t.Fatalf("unexpected upload %+v", uploaded)
	}
	if api.uploadParams.ResourceType != "video" || api.uploadParams.Folder != "vidtube" {
		t.Fatalf("unexpected params %+v", api.uploadParams)
	}

	image := writeTempAsset(t, "thumb.png", AssetImage)
	api.uploadResult = &uploader.UploadResult{URL: "http://res.cloudinary.com/demo/image/upload/thumb.png"}
	uploaded, err = store.Upload(context.Background(), image)
	if err != nil {
		t.Fatalf("upload image: %v", err)
	}
	if uploaded.URL != api.uploadResult.URL || uploaded.Duration != 0 {
		t.Fatalf("expected plain url fallback without duration got %+v", uploaded)
	}
	if api.uploadParams.ResourceType != "auto" {
		t.Fatalf("expected auto resource type for images got %q", api.uploadParams.ResourceType)
	}
	if len(prober.paths) != 1 {
		t.Fatalf("expected only the video to be probed got %v", prober.paths)
	}
}

func TestCloudinaryUploadWithoutURL(t *testing.T) {
	store := &CloudinaryStorage{api: &fakeCloudinary{uploadResult: &uploader.UploadResult{}}}

	_, err := store.Upload(context.Background(), writeTempAsset(t, "a.png", AssetImage))
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed got %v", err)
	}
}

func TestCloudinaryDelete(t *testing.T) {
	cases := []struct {
		name    string
		result  string
		wantErr bool
	}{
		{name: "ok", result: "ok"},
		{name: "already gone", result: "not found"},
		{name: "refused", result: "error", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeCloudinary{destroyResult: &uploader.DestroyResult{Result: tc.result}}
			store := &CloudinaryStorage{api: api}

			err := store.Delete(context.Background(), "https://res.cloudinary.com/demo/video/upload/v1700000000/vidtube/clip.mp4")
			if tc.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if api.destroyParams.PublicID != "vidtube/clip" || api.destroyParams.ResourceType != "video" {
				t.Fatalf("unexpected destroy params %+v", api.destroyParams)
			}
		})
	}
}

func TestCloudinaryPublicID(t *testing.T) {
	cases := []struct {
		url          string
		wantID       string
		wantResource string
		wantErr      bool
	}{
		{url: "https://res.cloudinary.com/demo/image/upload/v123/sample.jpg", wantID: "sample", wantResource: "image"},
		{url: "https://res.cloudinary.com/demo/video/upload/folder/sub/clip.mp4", wantID: "folder/sub/clip", wantResource: "video"},
		{url: "https://res.cloudinary.com/demo/image/upload/v1/a/b.c.png", wantID: "a/b.c", wantResource: "image"},
		{url: "https://example.com/not-cloudinary.png", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tc := range cases {
		id, resource, err := cloudinaryPublicID(tc.url)
		if tc.wantErr {
			if !errors.Is(err, ErrDeleteFailed) {
				t.Fatalf("%q: expected ErrDeleteFailed got %v", tc.url, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.url, err)
		}
		if id != tc.wantID || resource != tc.wantResource {
			t.Fatalf("%q: got %q/%q want %q/%q", tc.url, id, resource, tc.wantID, tc.wantResource)
		}
	}
}

type fakeS3 struct {
	key        string
	deletedKey string
	uploadErr  error
}

func (f *fakeS3) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.key = *input.Key
	return &manager.UploadOutput{}, f.uploadErr
}

func (f *fakeS3) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletedKey = *input.Key
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageUploadAndDelete(t *testing.T) {
	client := &fakeS3{}
	store := &S3Storage{uploader: client, deleter: client, prober: &stubProber{duration: 3}, bucket: "media", baseURL: "https://cdn.example.com"}

	uploaded, err := store.Upload(context.Background(), writeTempAsset(t, "Clip.MP4", AssetVideo))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if filepath.Dir(client.key) != "video" || filepath.Ext(client.key) != ".mp4" {
		t.Fatalf("unexpected key %q", client.key)
	}
	if uploaded.URL != "https://cdn.example.com/"+client.key || uploaded.Duration != 3 {
		t.Fatalf("unexpected upload %+v", uploaded)
	}

	if err := store.Delete(context.Background(), uploaded.URL); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if client.deletedKey != client.key {
		t.Fatalf("expected %q deleted got %q", client.key, client.deletedKey)
	}

	if err := store.Delete(context.Background(), "https://cdn.example.com/"); !errors.Is(err, ErrDeleteFailed) {
		t.Fatalf("expected ErrDeleteFailed for empty key got %v", err)
	}
}

type flakyDelegate struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	uploads   int
	deleted   []string
}

func (f *flakyDelegate) Upload(context.Context, Asset) (Uploaded, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return Uploaded{}, f.uploadErr
	}
	return Uploaded{URL: "https://cdn.example.com/a"}, nil
}

func (f *flakyDelegate) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *flakyDelegate) deletedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func TestBreakerDelegateOpensAfterFailures(t *testing.T) {
	base := &flakyDelegate{uploadErr: errors.New("503 from media service")}
	breaker := NewBreakerDelegate(base, BreakerConfig{Name: "test-open", MaxFailures: 2, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		if _, err := breaker.Upload(context.Background(), Asset{}); err == nil || errors.Is(err, ErrDelegateUnavailable) {
			t.Fatalf("attempt %d: expected pass-through failure got %v", i, err)
		}
	}

	if _, err := breaker.Upload(context.Background(), Asset{}); !errors.Is(err, ErrDelegateUnavailable) {
		t.Fatalf("expected breaker to be open got %v", err)
	}
	if base.uploads != 2 {
		t.Fatalf("expected open breaker to skip the delegate, got %d calls", base.uploads)
	}

	if err := breaker.Delete(context.Background(), "https://cdn.example.com/a"); err != nil {
		t.Fatalf("expected deletes to use their own breaker: %v", err)
	}
}

func TestJanitorDrainsOnShutdown(t *testing.T) {
	base := &flakyDelegate{}
	janitor := NewJanitor(base, JanitorConfig{QueueSize: 8, Workers: 2}, nil)

	urls := []string{"https://cdn.example.com/1", "https://cdn.example.com/2", "https://cdn.example.com/3"}
	for _, url := range urls {
		if err := janitor.Enqueue(context.Background(), url); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := janitor.Enqueue(context.Background(), "  "); err != nil {
		t.Fatalf("expected blank url to be ignored: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := len(base.deletedURLs()); got != len(urls) {
		t.Fatalf("expected %d deletions got %d", len(urls), got)
	}

	if err := janitor.Enqueue(context.Background(), "https://cdn.example.com/4"); !errors.Is(err, errJanitorClosed) {
		t.Fatalf("expected closed janitor to reject work got %v", err)
	}
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestJanitorLogsOriginatingRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	base := &flakyDelegate{deleteErr: errors.New("media service down")}
	janitor := NewJanitor(base, JanitorConfig{QueueSize: 1, Workers: 1}, logger)

	ctx := logging.WithRequestID(context.Background(), "req-42")
	if err := janitor.Enqueue(ctx, "https://cdn.example.com/orphan"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := janitor.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"orphaned asset delete failed"`) {
		t.Fatalf("expected failed delete to be logged got %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Fatalf("expected log line to carry the originating request id got %s", out)
	}
}

func TestAssetRemove(t *testing.T) {
	asset := writeTempAsset(t, "x.png", AssetImage)
	if err := asset.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(asset.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed got %v", err)
	}
	if err := asset.Remove(); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	var missing *Asset
	if err := missing.Remove(); err != nil {
		t.Fatalf("nil asset remove: %v", err)
	}
}
