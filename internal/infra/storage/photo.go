package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// PhotoUploader stores barber photos as WebP under a fresh key, so a new
// upload never collides with a cached old one.
type PhotoUploader struct {
	store BlobStore
}

func NewPhotoUploader(store BlobStore) *PhotoUploader {
	return &PhotoUploader{store: store}
}

func (u *PhotoUploader) Upload(ctx context.Context, barberID uint, r io.Reader) (string, error) {
	data, err := ToWebP(r, PhotoMaxSide)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("barbers/%d/%s.webp", barberID, uuid.NewString())
	return u.store.Put(ctx, key, "image/webp", data)
}
