package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/DukeRupert/catalog-admin/internal/domain"
)

// ImageCollection adds the upload and batch lookup endpoints to the images
// resource.
type ImageCollection struct {
	*Collection[domain.Image]
}

// NewImageCollection creates the images resource client.
func NewImageCollection(client *Client) *ImageCollection {
	return &ImageCollection{Collection: NewCollection[domain.Image](client, Images)}
}

// Upload sends a file as multipart form data to POST /images/upload and
// returns the stored image (at least its id and url).
func (c *ImageCollection) Upload(ctx context.Context, up domain.Upload) (domain.Image, error) {
	var img domain.Image

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, up.Filename))
	header.Set("Content-Type", up.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return img, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return img, fmt.Errorf("write multipart part: %w", err)
	}
	if up.AltText != "" {
		if err := mw.WriteField("altText", up.AltText); err != nil {
			return img, fmt.Errorf("write alt text: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return img, fmt.Errorf("close multipart writer: %w", err)
	}

	return c.single(ctx, call{
		resource:    "images_upload",
		method:      http.MethodPost,
		path:        c.res.Path + "/upload",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
}

// Create uploads a new image. It is the create endpoint of the images
// resource, so the images list view can use the same mutation flow as the
// other entities.
func (c *ImageCollection) Create(ctx context.Context, payload any) (domain.Image, error) {
	up, ok := payload.(*domain.Upload)
	if !ok {
		return domain.Image{}, fmt.Errorf("image create expects *domain.Upload, got %T", payload)
	}
	return c.Upload(ctx, *up)
}

// Batch resolves many image IDs in one request: POST /images/batch {ids}.
func (c *ImageCollection) Batch(ctx context.Context, ids []string) ([]domain.ImageRef, error) {
	req, err := jsonCall("images_batch", http.MethodPost, c.res.Path+"/batch", map[string][]string{"ids": ids})
	if err != nil {
		return nil, err
	}
	// The batch endpoint only reads, so it is safe to retry.
	req.retry = true

	env, err := c.client.send(ctx, req)
	if err != nil {
		return nil, err
	}

	raw, ok := env.field("images")
	if !ok {
		return nil, c.malformed(req.method, req.path, fmt.Errorf("missing data.images"))
	}
	var refs []domain.ImageRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, c.malformed(req.method, req.path, fmt.Errorf("decode data.images: %w", err))
	}
	return refs, nil
}
