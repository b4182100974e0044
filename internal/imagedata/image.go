// Package imagedata holds uploaded photos in memory and converts them to and
// from data URLs.
package imagedata

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
)

var (
	// ErrNotImage is returned when uploaded content is not an image.
	ErrNotImage = errors.New("file is not an image")
	// ErrTooLarge is returned when uploaded content exceeds the size limit.
	ErrTooLarge = errors.New("image exceeds the upload size limit")
	// ErrUnsupportedExtension is returned for file names outside the allowed set.
	ErrUnsupportedExtension = errors.New("invalid file type, only JPEG, PNG, GIF and WEBP images are allowed")
	// ErrTooManyPixels is returned when an image declares more pixels than
	// Downscale is willing to decode.
	ErrTooManyPixels = errors.New("image dimensions exceed the decode limit")
)

// MaxDecodePixels caps width*height of images decoded for downscaling.
const MaxDecodePixels = 40_000_000

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Image is a photo held in memory.
type Image struct {
	MIMEType string
	Data     []byte
}

// CheckExtension validates the extension of an uploaded file name.
func CheckExtension(filename string) error {
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrUnsupportedExtension
	}
	return nil
}

// Read reads at most limit bytes from r and sniffs the content type.
func Read(r io.Reader, limit int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return FromBytes(data)
}

// FromBytes sniffs data and wraps it as an Image.
func FromBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrNotImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return &Image{MIMEType: mt.String(), Data: data}, nil
}

// DataURL encodes the image as a base64 data URL.
func (img *Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + img.Base64()
}

// Base64 returns the standard base64 encoding of the image bytes.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// Downscale shrinks the image to maxWidth pixels wide, keeping the aspect
// ratio. Images that are already narrow enough are returned unchanged. PNG
// input stays PNG, everything else is re-encoded as JPEG.
//
// The header is read first: images over MaxDecodePixels are refused with
// ErrTooManyPixels and never decoded.
func Downscale(img *Image, maxWidth uint) (*Image, error) {
	if maxWidth == 0 {
		return img, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	if uint(cfg.Width) <= maxWidth {
		return img, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	scaled := resize.Resize(maxWidth, 0, decoded, resize.Lanczos3)

	var buf bytes.Buffer
	out := &Image{}
	switch img.MIMEType {
	case "image/png":
		err = png.Encode(&buf, scaled)
		out.MIMEType = "image/png"
	default:
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85})
		out.MIMEType = "image/jpeg"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}
