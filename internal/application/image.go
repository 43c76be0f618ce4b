package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// MaxImageBytes is the largest photo accepted for diagnosis or autofill.
const MaxImageBytes = 8 << 20

// ErrInvalidImage is returned when an uploaded photo is empty, too large or
// not a supported image type.
var ErrInvalidImage = errors.New("invalid image")

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// NewImage validates an upload and returns it with a trustworthy MIME type.
// The declared type is checked against the sniffed content so a renamed file
// cannot smuggle another format through.
func NewImage(data []byte, declaredMIME string) (driven.Image, error) {
	if len(data) == 0 {
		return driven.Image{}, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return driven.Image{}, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrInvalidImage, len(data), MaxImageBytes)
	}

	sniffed := http.DetectContentType(data)
	if !supportedImageTypes[sniffed] {
		return driven.Image{}, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, sniffed)
	}

	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(declaredMIME, ";", 2)[0]))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return driven.Image{}, fmt.Errorf("%w: declared %s but content is %s", ErrInvalidImage, declared, sniffed)
	}

	return driven.Image{Data: data, MIMEType: sniffed}, nil
}

func imageExtension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
