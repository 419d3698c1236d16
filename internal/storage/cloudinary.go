package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/vidtube/backend/internal/config"
)

// cloudinaryAPI is the subset of the Cloudinary upload API used here.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStorage implements Delegate on top of a Cloudinary account.
type CloudinaryStorage struct {
	api    cloudinaryAPI
	prober Prober
	folder string
}

// NewCloudinaryStorage configures a Cloudinary client from a cloudinary:// URL.
func NewCloudinaryStorage(cfg config.CloudinaryConfig, prober Prober) (*CloudinaryStorage, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("cloudinary storage: url is required")
	}

	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary storage: %w", err)
	}

	return &CloudinaryStorage{
		api:    &cld.Upload,
		prober: prober,
		folder: strings.Trim(cfg.Folder, "/"),
	}, nil
}

// Upload sends the local file to Cloudinary and returns its secure URL.
func (c *CloudinaryStorage) Upload(ctx context.Context, asset Asset) (Uploaded, error) {
	duration, err := probeDuration(ctx, c.prober, asset)
	if err != nil {
		return Uploaded{}, fmt.Errorf("cloudinary probe %s: %w", asset.Name, err)
	}

	resourceType := "auto"
	if asset.Kind == AssetVideo {
		resourceType = "video"
	}

	result, err := c.api.Upload(ctx, asset.Path, uploader.UploadParams{
		ResourceType: resourceType,
		Folder:       c.folder,
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("cloudinary upload %s: %w", asset.Name, err)
	}
	if result == nil {
		return Uploaded{}, fmt.Errorf("cloudinary upload %s: %w", asset.Name, ErrUploadFailed)
	}

	location := result.SecureURL
	if location == "" {
		location = result.URL
	}
	if location == "" {
		return Uploaded{}, fmt.Errorf("cloudinary upload %s returned no url: %w", asset.Name, ErrUploadFailed)
	}

	return Uploaded{URL: location, PublicID: result.PublicID, Duration: duration}, nil
}

// Delete destroys the asset behind a URL previously returned by Upload.
// Assets that are already gone count as deleted.
func (c *CloudinaryStorage) Delete(ctx context.Context, rawURL string) error {
	publicID, resourceType, err := cloudinaryPublicID(rawURL)
	if err != nil {
		return err
	}

	result, err := c.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if result == nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, ErrDeleteFailed)
	}

	switch result.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy %s returned %q: %w", publicID, result.Result, ErrDeleteFailed)
	}
}

// cloudinaryPublicID extracts the public id and resource type from a delivery URL
// such as https://res.cloudinary.com/demo/video/upload/v1700000000/vidtube/clip.mp4.
func cloudinaryPublicID(rawURL string) (publicID, resourceType string, err error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Path == "" {
		return "", "", fmt.Errorf("cloudinary: %w: unparseable url %q", ErrDeleteFailed, rawURL)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	uploadIdx := -1
	for i, segment := range segments {
		if segment == "upload" {
			uploadIdx = i
			break
		}
	}
	if uploadIdx < 1 || uploadIdx == len(segments)-1 {
		return "", "", fmt.Errorf("cloudinary: %w: not a delivery url %q", ErrDeleteFailed, rawURL)
	}

	resourceType = segments[uploadIdx-1]
	rest := segments[uploadIdx+1:]
	if len(rest) > 1 && isVersionSegment(rest[0]) {
		rest = rest[1:]
	}

	joined := strings.Join(rest, "/")
	publicID = strings.TrimSuffix(joined, path.Ext(joined))
	if publicID == "" {
		return "", "", fmt.Errorf("cloudinary: %w: empty public id in %q", ErrDeleteFailed, rawURL)
	}
	return publicID, resourceType, nil
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
