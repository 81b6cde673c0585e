// Package service contains the catalog business logic that sits between the
// handlers and the list view controllers.
//
// This file implements image preparation ahead of the backend upload.
package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/disintegration/imaging"
)

// Image preparation defaults.
const (
	DefaultMaxUploadBytes    = 5 << 20
	DefaultMaxImageDimension = 2048
	jpegQuality              = 85
)

// =============================================================================
// Interface Definition
// =============================================================================

// ImagePreparer turns a raw file from a form or the command line into an
// upload the backend will accept.
type ImagePreparer interface {
	// Prepare checks size and type, and downscales images larger than the
	// configured dimension. Returns domain.EINVALID for unsupported types and
	// domain.ETOOLARGE for oversized files.
	Prepare(filename, providedType string, r io.Reader) (*domain.Upload, error)
}

// =============================================================================
// Implementation
// =============================================================================

// ImagePrepConfig configures an ImagePreparer.
type ImagePrepConfig struct {
	MaxBytes     int64 // largest accepted file
	MaxDimension int   // longest allowed edge in pixels; 0 disables resizing
}

type imagingPreparer struct {
	config ImagePrepConfig
	logger *slog.Logger
}

// NewImagePreparer creates an ImagePreparer backed by the imaging library.
func NewImagePreparer(config ImagePrepConfig, logger *slog.Logger) ImagePreparer {
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxUploadBytes
	}
	return &imagingPreparer{config: config, logger: logger}
}

func (p *imagingPreparer) Prepare(filename, providedType string, r io.Reader) (*domain.Upload, error) {
	const op = "image.prepare"

	// Read one byte past the limit to detect oversized files
	data, err := io.ReadAll(io.LimitReader(r, p.config.MaxBytes+1))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read file")
	}
	if int64(len(data)) > p.config.MaxBytes {
		return nil, &domain.Error{
			Code:    domain.ETOOLARGE,
			Op:      op,
			Message: fmt.Sprintf("Image must be smaller than %d MB", p.config.MaxBytes>>20),
		}
	}
	if len(data) == 0 {
		return nil, domain.Invalid(op, "Please choose an image to upload")
	}

	contentType := DetectContentType(providedType, filename, data)
	if !IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported image type: %s. Use JPEG, PNG, GIF or WebP.", contentType))
	}

	upload := &domain.Upload{
		Filename:    cleanFilename(filename, contentType),
		ContentType: contentType,
		Data:        data,
	}

	if err := p.downscale(upload); err != nil {
		return nil, domain.Invalid(op, "The image could not be read. Is the file corrupted?")
	}
	return upload, nil
}

// downscale resizes the upload in place when it exceeds MaxDimension.
// WebP has no encoder in the imaging library, so it is uploaded unchanged.
func (p *imagingPreparer) downscale(up *domain.Upload) error {
	if p.config.MaxDimension <= 0 || up.ContentType == "image/webp" {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return err
	}
	if cfg.Width <= p.config.MaxDimension && cfg.Height <= p.config.MaxDimension {
		return nil
	}

	img, err := imaging.Decode(bytes.NewReader(up.Data), imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	resized := imaging.Fit(img, p.config.MaxDimension, p.config.MaxDimension, imaging.Lanczos)

	format, err := imaging.FormatFromExtension(ExtensionForContentType(up.ContentType))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return err
	}

	p.logger.Info("image downscaled",
		"filename", up.Filename,
		"original_width", cfg.Width,
		"original_height", cfg.Height,
		"original_bytes", len(up.Data),
		"bytes", buf.Len(),
	)
	up.Data = buf.Bytes()
	return nil
}

// cleanFilename strips any client path and makes the extension match the
// detected type.
func cleanFilename(filename, contentType string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	ext := ExtensionForContentType(contentType)
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return name
}
