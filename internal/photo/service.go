package photo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slotpark/parking-slot-backend/internal/pkg/storage"
)

// MaxUploadBytes caps slot photo uploads at 5 MiB.
const MaxUploadBytes = 5 << 20

const thumbnailSize = 200

type Service interface {
	Upload(ctx context.Context, header *multipart.FileHeader, userID string) (*Photo, error)
	Get(ctx context.Context, id string) (*Photo, error)
	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, id string) (io.ReadCloser, *Photo, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *Photo, error)
}

type service struct {
	repo  Repository
	store storage.Storage
}

func NewService(repo Repository, store storage.Storage) Service {
	return &service{
		repo:  repo,
		store: store,
	}
}

func (s *service) Upload(ctx context.Context, header *multipart.FileHeader, userID string) (*Photo, error) {
	if header.Size > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// Buffered so the same bytes feed both the original and the thumbnail.
	fileBytes, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if int64(len(fileBytes)) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	photoID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))

	// Sharding path: upload/ab/UUID.ext
	shard := photoID[:2]
	storagePath := fmt.Sprintf("upload/%s/%s%s", shard, photoID, ext)

	if err := s.store.Save(ctx, storagePath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("failed to save photo to storage: %w", err)
	}

	var thumbnailPath *string
	thumbReader, err := storage.Thumbnail(bytes.NewReader(fileBytes), thumbnailSize, thumbnailSize)
	if err == nil {
		tPath := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, photoID)
		if err := s.store.Save(ctx, tPath, thumbReader); err == nil {
			thumbnailPath = &tPath
		}
	}
	// A failed thumbnail does not fail the upload.

	p := &Photo{
		ID:            photoID,
		UserID:        userID,
		Filename:      header.Filename,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          header.Size,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		// Clean up the blobs if the record write fails.
		_ = s.store.Delete(ctx, storagePath)
		if thumbnailPath != nil {
			_ = s.store.Delete(ctx, *thumbnailPath)
		}
		return nil, err
	}

	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*Photo, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_ = s.store.Delete(ctx, p.StoragePath)
	if p.ThumbnailPath != nil {
		_ = s.store.Delete(ctx, *p.ThumbnailPath)
	}

	return s.repo.Delete(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *Photo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.store.Get(ctx, p.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve photo from storage: %w", err)
	}

	return stream, p, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *Photo, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if p.ThumbnailPath == nil {
		return nil, nil, ErrNoThumbnail
	}

	stream, err := s.store.Get(ctx, *p.ThumbnailPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve thumbnail from storage: %w", err)
	}

	return stream, p, nil
}
