package photo

import (
	"net/http"
	"time"

	"github.com/slotpark/parking-slot-backend/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.New(http.StatusNotFound, "photo not found")
	ErrNotAnImage  = apperror.New(http.StatusBadRequest, "uploaded file must be an image")
	ErrTooLarge    = apperror.New(http.StatusBadRequest, "uploaded file is too large")
	ErrNoThumbnail = apperror.New(http.StatusNotFound, "thumbnail not available")
)

// Photo is an uploaded slot image plus its generated thumbnail.
type Photo struct {
	ID            string
	UserID        string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// URL returns the public path for the full-size image.
func URL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public path for the thumbnail.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}
