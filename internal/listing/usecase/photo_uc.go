package usecase

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
)

const (
	signedURLTTL    = time.Hour
	listImagesLimit = 1000
)

// FileSource reads the raw bytes of a local image reference.
type FileSource interface {
	ReadFile(uri string) ([]byte, error)
}

// DiskFileSource is the production FileSource, reading from the local
// filesystem.
type DiskFileSource struct{}

func (DiskFileSource) ReadFile(uri string) ([]byte, error) { return os.ReadFile(uri) }

// PhotoUsecase manages the image assets of a listing: uploads into the
// listing's storage folder and URL resolution on the way back out.
type PhotoUsecase struct {
	blobs  domain.BlobStore
	files  FileSource
	logger *zap.Logger
	now    func() time.Time
}

func NewPhotoUsecase(blobs domain.BlobStore, files FileSource, logger *zap.Logger) *PhotoUsecase {
	return &PhotoUsecase{blobs: blobs, files: files, logger: logger, now: time.Now}
}

// Upload writes every local image to {ownerID}/{carID}/{name} with upsert
// semantics. Names get a timestamp prefix so re-uploads of the same file
// at different times never overwrite each other. All files are uploaded
// concurrently; if any file fails the whole batch fails, but files
// already written are not rolled back.
func (uc *PhotoUsecase) Upload(ctx context.Context, ownerID, carID string, localURIs []string) ([]domain.UploadResult, error) {
	if err := checkFolderIDs(ownerID, carID); err != nil {
		return nil, err
	}
	if len(localURIs) == 0 {
		return []domain.UploadResult{}, nil
	}

	folder := folderPath(ownerID, carID)
	results := make([]domain.UploadResult, len(localURIs))
	errs := make([]error, len(localURIs))

	var wg sync.WaitGroup
	for i, uri := range localURIs {
		wg.Add(1)
		go func(i int, uri string) {
			defer wg.Done()
			name := fmt.Sprintf("%d_%s", uc.now().UnixMilli(), path.Base(uri))
			blobPath := folder + "/" + name

			data, err := uc.files.ReadFile(uri)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", uri, err)
				return
			}
			err = uc.blobs.Upload(ctx, blobPath, data, domain.UploadOptions{
				ContentType: contentTypeFor(name),
				Upsert:      true,
			})
			if err != nil {
				errs[i] = fmt.Errorf("upload %s: %w", uri, err)
				return
			}
			results[i] = domain.UploadResult{Path: blobPath}
		}(i, uri)
	}
	wg.Wait()

	var failed []string
	var first error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, localURIs[i])
			if first == nil {
				first = err
			}
		}
	}
	if first != nil {
		uc.logger.Error("photo upload batch failed",
			zap.String("car_id", carID), zap.Strings("failed", failed), zap.Error(first))
		return nil, &domain.PartialUploadError{Failed: failed, Err: first}
	}

	uc.logger.Info("photos uploaded", zap.String("car_id", carID), zap.Int("count", len(results)))
	return results, nil
}

// ListImages enumerates the listing's folder and resolves an access URL
// per file: the durable public URL when the bucket has one, otherwise a
// signed URL valid for one hour. A file whose signed URL cannot be
// generated is skipped with a diagnostic instead of failing the listing.
func (uc *PhotoUsecase) ListImages(ctx context.Context, ownerID, carID string) ([]domain.ImageRef, error) {
	if err := checkFolderIDs(ownerID, carID); err != nil {
		return nil, err
	}

	folder := folderPath(ownerID, carID)
	entries, err := uc.blobs.List(ctx, folder, domain.ListOptions{Limit: listImagesLimit})
	if err != nil {
		return nil, &domain.StoreError{Op: "list images", Err: err}
	}

	refs := make([]domain.ImageRef, 0, len(entries))
	for _, entry := range entries {
		blobPath := folder + "/" + entry.Name

		if url, ok := uc.blobs.PublicURL(blobPath); ok {
			refs = append(refs, domain.ImageRef{Name: entry.Name, Path: blobPath, URL: url})
			continue
		}
		url, err := uc.blobs.SignedURL(ctx, blobPath, signedURLTTL)
		if err != nil {
			uc.logger.Warn("failed to sign image URL, skipping file",
				zap.String("path", blobPath), zap.Error(err))
			continue
		}
		refs = append(refs, domain.ImageRef{Name: entry.Name, Path: blobPath, URL: url, Signed: true})
	}
	return refs, nil
}

// FirstImage returns the listing's first image or nil when it has none.
func (uc *PhotoUsecase) FirstImage(ctx context.Context, ownerID, carID string) (*domain.ImageRef, error) {
	refs, err := uc.ListImages(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return &refs[0], nil
}

func folderPath(ownerID, carID string) string {
	return ownerID + "/" + carID
}

func checkFolderIDs(ownerID, carID string) error {
	if ownerID == "" || carID == "" {
		return fmt.Errorf("%w: owner id and car id are required", domain.ErrInvalidArgument)
	}
	return nil
}

func contentTypeFor(fileName string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); ct != "" {
		return ct
	}
	return "image/jpeg"
}
