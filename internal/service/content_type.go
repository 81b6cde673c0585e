package service

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// =============================================================================
// Content Type Detection
// =============================================================================

// DetectContentType determines the MIME type of an uploaded file.
//
// Detection priority:
//  1. Sniff the first 512 bytes of data
//  2. If sniffing is inconclusive, use the browser-provided type
//  3. Then the file extension
//  4. Fall back to "application/octet-stream"
//
// Sniffing goes first because the provided type and the extension are both
// client-controlled.
func DetectContentType(providedType, filename string, data []byte) string {
	if len(data) > 0 {
		sniffed := baseType(http.DetectContentType(data))
		if sniffed != "application/octet-stream" && sniffed != "text/plain" {
			return sniffed
		}
	}

	if providedType != "" {
		return baseType(providedType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return baseType(contentType)
	}

	return "application/octet-stream"
}

// =============================================================================
// Content Type Validation
// =============================================================================

// AllowedImageTypes defines the MIME types accepted for catalog images.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true, // Some systems use this instead of image/jpeg
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedImageType checks if a content type is an allowed image format.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[baseType(contentType)]
}

// ExtensionForContentType returns a common file extension for a MIME type.
func ExtensionForContentType(contentType string) string {
	extensions := map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}
	if ext, ok := extensions[baseType(contentType)]; ok {
		return ext
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// baseType strips parameters such as charset and normalizes case.
func baseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(base))
}
