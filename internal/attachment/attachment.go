package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/nurpe/pointage/internal/model"
)

// MaxSize is the largest accepted document, 5 MiB.
const MaxSize = 5 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("unsupported file type, use JPG, PNG, WEBP or PDF")
	ErrTooLarge        = errors.New("file too large, maximum 5MB")
	ErrEmpty           = errors.New("empty file")
	ErrMalformed       = errors.New("malformed attachment")
)

var allowedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// Upload is a user-selected file as received from a form.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func Allowed(contentType string) bool {
	_, ok := allowedTypes[normalizeType(contentType)]
	return ok
}

// Intake validates the upload and encodes it as a data URL so the entry
// stays plain serializable data. The declared type must be on the
// allow-list and the content must look like that type. Nothing is returned
// on rejection.
func Intake(upload Upload) (model.Attachment, error) {
	if upload.Size > MaxSize {
		return model.Attachment{}, ErrTooLarge
	}

	declared := normalizeType(upload.ContentType)
	if !Allowed(declared) {
		return model.Attachment{}, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, MaxSize+1))
	if err != nil {
		return model.Attachment{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxSize {
		return model.Attachment{}, ErrTooLarge
	}
	if len(data) == 0 {
		return model.Attachment{}, ErrEmpty
	}
	if !contentMatches(declared, data) {
		return model.Attachment{}, fmt.Errorf("%w: content is not %s", ErrUnsupportedType, declared)
	}

	return model.Attachment{
		Content:  Encode(declared, data),
		FileName: baseName(upload.FileName),
		FileType: declared,
	}, nil
}

// contentMatches sniffs the bytes and reports whether they are of the
// declared family. image/jpg is the legacy alias of image/jpeg.
func contentMatches(declared string, data []byte) bool {
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	return mimetype.Detect(data).Is(declared)
}

func Encode(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a base64 data URL into its content type and bytes.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrMalformed
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformed
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrMalformed
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return contentType, data, nil
}

func normalizeType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}

func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "document"
	}
	return name
}
