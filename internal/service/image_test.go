package service

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func newTestPreparer(maxBytes int64, maxDim int) ImagePreparer {
	return NewImagePreparer(ImagePrepConfig{MaxBytes: maxBytes, MaxDimension: maxDim},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestImagePreparer_PassesSmallImage(t *testing.T) {
	data := encodeImage(t, 40, 30, imaging.PNG)
	p := newTestPreparer(0, 100)

	up, err := p.Prepare("C:\\Users\\me\\bolt.png", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "bolt.png", up.Filename)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, data, up.Data)
}

func TestImagePreparer_Downscales(t *testing.T) {
	data := encodeImage(t, 400, 200, imaging.JPEG)
	p := newTestPreparer(0, 100)

	up, err := p.Prepare("wide.jpeg", "", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", up.ContentType)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestImagePreparer_FixesExtension(t *testing.T) {
	data := encodeImage(t, 10, 10, imaging.GIF)
	p := newTestPreparer(0, 0)

	up, err := p.Prepare("anim.png", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "image/gif", up.ContentType)
	assert.Equal(t, "anim.gif", up.Filename)
}

func TestImagePreparer_TooLarge(t *testing.T) {
	p := newTestPreparer(1<<20, 0)

	_, err := p.Prepare("big.png", "image/png", bytes.NewReader(make([]byte, 1<<20+1)))
	require.Error(t, err)
	assert.Equal(t, domain.ETOOLARGE, domain.ErrorCode(err))
	assert.Equal(t, "Image must be smaller than 1 MB", domain.ErrorMessage(err))
}

func TestImagePreparer_Empty(t *testing.T) {
	_, err := newTestPreparer(0, 0).Prepare("none.png", "image/png", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestImagePreparer_UnsupportedType(t *testing.T) {
	_, err := newTestPreparer(0, 0).Prepare("notes.txt", "text/plain", strings.NewReader("hello"))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "Unsupported image type")
}

func TestImagePreparer_Corrupt(t *testing.T) {
	data := append([]byte{}, pngHeader...)
	data = append(data, bytes.Repeat([]byte{0xff}, 64)...)

	_, err := newTestPreparer(0, 10).Prepare("broken.png", "image/png", bytes.NewReader(data))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "image.png", cleanFilename("", "image/png"))
	assert.Equal(t, "photo.JPG", cleanFilename("../../photo.JPG", "image/jpeg"))
	assert.Equal(t, "photo.jpg", cleanFilename("photo.jpeg", "image/jpeg"))
	assert.Equal(t, "scan.webp", cleanFilename("scan", "image/webp"))
}
