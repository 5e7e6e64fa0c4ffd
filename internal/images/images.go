// Package images stores activity images in object storage.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 10 << 20

var (
	ErrTooLarge    = errors.New("image exceeds the 10 MB limit")
	ErrNotAnImage  = errors.New("only image uploads are accepted")
	ErrEmptyUpload = errors.New("image is empty")
)

// Store is the interface for object storage backends.
type Store interface {
	// Put writes the object and returns the URL it can be fetched from.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Validate checks an upload's declared size and content type.
func Validate(contentType string, size int64) error {
	if size <= 0 {
		return ErrEmptyUpload
	}
	if size > MaxUploadSize {
		return ErrTooLarge
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ErrNotAnImage
	}
	return nil
}

// ObjectKey builds activities/<id>/<uuid><ext>. The extension comes from the
// uploaded file name, or from the content type when the name has none.
func ObjectKey(activityID int64, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("activities/%s/%s%s", strconv.FormatInt(activityID, 10), uuid.NewString(), ext)
}
