package services

import (
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go"
	"github.com/cloudinary/cloudinary-go/api/uploader"
	"github.com/pkg/errors"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/utils"
)

// UploadedImage is a stored image and the id needed to delete it
type UploadedImage struct {
	URL      string
	PublicID string
}

// ImageStore uploads and removes product and category images
type ImageStore interface {
	Upload(ctx context.Context, file interface{}) (UploadedImage, error)
	Destroy(ctx context.Context, publicID string) error
}

// ErrImageStoreDisabled is returned when no image store is configured
var ErrImageStoreDisabled = errors.New("image uploads are not configured")

// CloudinaryStore is the ImageStore backed by Cloudinary
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewImageStore returns a Cloudinary store, or a disabled store when
// credentials are missing
func NewImageStore(cfg *config.Config) ImageStore {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		utils.LogInfo("Cloudinary credentials not set, image uploads disabled")
		return disabledImageStore{}
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		utils.LogError("Failed to create Cloudinary client: %v", err)
		return disabledImageStore{}
	}
	return &CloudinaryStore{cld: cld, folder: cfg.CloudinaryUploadFolder}
}

// Upload sends file (a multipart.File, path or URL) to Cloudinary
func (s *CloudinaryStore) Upload(ctx context.Context, file interface{}) (UploadedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, 40*time.Second)
	defer cancel()

	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: s.folder})
	if err != nil {
		return UploadedImage{}, errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return UploadedImage{}, errors.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return UploadedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Destroy removes an uploaded image
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, 40*time.Second)
	defer cancel()

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return errors.Wrapf(err, "cloudinary destroy %s", publicID)
	}
	if res.Error.Message != "" {
		return errors.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	return nil
}

type disabledImageStore struct{}

func (disabledImageStore) Upload(context.Context, interface{}) (UploadedImage, error) {
	return UploadedImage{}, ErrImageStoreDisabled
}

func (disabledImageStore) Destroy(context.Context, string) error {
	return ErrImageStoreDisabled
}

// destroyImages removes images best-effort; failures are only logged
func destroyImages(ctx context.Context, store ImageStore, publicIDs ...string) {
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := store.Destroy(ctx, id); err != nil {
			utils.LogError("Failed to clean up image %s: %v", id, err)
		}
	}
}
