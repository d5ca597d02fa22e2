package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var (
	ErrInvalidImage  = errors.New("only jpeg, jpg, png and gif images are allowed")
	ErrImageTooLarge = errors.New("image exceeds the 5MB limit")
	ErrInvalidKey    = errors.New("invalid object key")
)

var allowedImageExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Upload is an image received from a client. Size is the size the client
// declared; the stored body is still limited to MaxImageSize.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object identifies a stored image. URL is what API responses expose.
type Object struct {
	Key string
	URL string
}

type Store interface {
	Save(ctx context.Context, userID uint, upload Upload) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ValidateUpload checks the extension, the MIME type and the declared size,
// and returns the lower-cased extension used for the object key.
func ValidateUpload(upload Upload) (string, error) {
	extension := strings.ToLower(path.Ext(strings.TrimSpace(upload.Filename)))
	expectedType, ok := allowedImageExtensions[extension]
	if !ok {
		return "", ErrInvalidImage
	}

	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(upload.ContentType))
	if err != nil {
		return "", ErrInvalidImage
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	if mediaType != expectedType {
		return "", ErrInvalidImage
	}

	if upload.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}
	if upload.Body == nil {
		return "", ErrInvalidImage
	}
	return extension, nil
}

// NewObjectKey returns "<userID>/<uuid><ext>".
func NewObjectKey(userID uint, extension string) string {
	return fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), extension)
}

func validateKey(key string) error {
	cleaned := path.Clean(strings.TrimSpace(key))
	if cleaned == "." || cleaned != key || strings.HasPrefix(cleaned, "/") || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// limitedBody fails with ErrImageTooLarge once more than MaxImageSize bytes
// have been read.
type limitedBody struct {
	reader io.Reader
	read   int64
}

func newLimitedBody(reader io.Reader) *limitedBody {
	return &limitedBody{reader: io.LimitReader(reader, MaxImageSize+1)}
}

func (body *limitedBody) Read(buffer []byte) (int, error) {
	n, err := body.reader.Read(buffer)
	body.read += int64(n)
	if body.read > MaxImageSize {
		return n, ErrImageTooLarge
	}
	return n, err
}
