package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestToWebPShrinksLongestSide(t *testing.T) {
	out, err := ToWebP(bytes.NewReader(pngOf(t, 1024, 512)), 256)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}

func TestToWebPKeepsSmallImages(t *testing.T) {
	out, err := ToWebP(bytes.NewReader(pngOf(t, 40, 60)), 256)
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestToWebPRejectsGarbage(t *testing.T) {
	_, err := ToWebP(strings.NewReader("not an image"), 256)
	assert.True(t, httperr.IsBusiness(err, "invalid_image"))
}

type memBlobs struct {
	keys []string
}

func (m *memBlobs) Put(_ context.Context, key, contentType string, _ []byte) (string, error) {
	m.keys = append(m.keys, key)
	return "https://cdn.example/" + key, nil
}

func (m *memBlobs) Delete(context.Context, string) error { return nil }

func TestPhotoUploaderKeys(t *testing.T) {
	blobs := &memBlobs{}
	u := NewPhotoUploader(blobs)

	url, err := u.Upload(context.Background(), 3, bytes.NewReader(pngOf(t, 10, 10)))
	require.NoError(t, err)

	require.Len(t, blobs.keys, 1)
	assert.True(t, strings.HasPrefix(blobs.keys[0], "barbers/3/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	_, err = NewPhotoUploader(DisabledStore{}).Upload(context.Background(), 3, bytes.NewReader(pngOf(t, 10, 10)))
	assert.True(t, httperr.IsBusiness(err, "storage_disabled"))
}
