package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/art-exam-api/pkg/storage"
)

func TestUploadServiceRejectsSize(t *testing.T) {
	svc := NewUploadService(newMemoryFileStore(), 1, testLogger())

	file := buildFileHeader(t, "big.png", bytes.Repeat([]byte("a"), 2*1024*1024))

	_, err := svc.Store(context.Background(), UploadRequest{Category: "students", File: file})
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestUploadServiceTypeValidation(t *testing.T) {
	svc := NewUploadService(newMemoryFileStore(), 5, testLogger())

	file := buildFileHeader(t, "file.txt", []byte("plain text"))
	_, err := svc.Store(context.Background(), UploadRequest{Category: "students", File: file})
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadServiceRejectsCorruptImage(t *testing.T) {
	svc := NewUploadService(newMemoryFileStore(), 5, testLogger())

	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	file := buildFileHeader(t, "broken.png", pngHeader)
	_, err := svc.Store(context.Background(), UploadRequest{Category: "students", File: file})
	require.ErrorIs(t, err, ErrUploadScanFailed)
}

func TestUploadServiceRequiresFile(t *testing.T) {
	svc := NewUploadService(newMemoryFileStore(), 5, testLogger())

	_, err := svc.Store(context.Background(), UploadRequest{Category: "students"})
	require.ErrorIs(t, err, ErrUploadMissing)
}

func TestUploadServiceUsesStemAndDatedPath(t *testing.T) {
	store := newMemoryFileStore()
	svc := NewUploadService(store, 5, testLogger())

	file := buildFileHeader(t, "My Drawing.PNG", pngBytes(t, 10, 10))
	stored, err := svc.Store(context.Background(), UploadRequest{Category: "hand_drawing_answers", File: file})
	require.NoError(t, err)
	require.Equal(t, "My-Drawing.PNG", stored.Name)
	require.Equal(t, "hand_drawing_answers/2024/05/01/My-Drawing.PNG", stored.Path)
	require.Equal(t, "image/png", stored.MimeType)
}

func TestUploadServiceSuffixesCollidingNames(t *testing.T) {
	store := newMemoryFileStore()
	svc := NewUploadService(store, 5, testLogger())

	first, err := svc.Store(context.Background(), UploadRequest{Category: "students", Stem: "12345678901234", File: buildFileHeader(t, "a.png", pngBytes(t, 4, 4))})
	require.NoError(t, err)
	require.Equal(t, "12345678901234.png", first.Name)

	second, err := svc.Store(context.Background(), UploadRequest{Category: "students", Stem: "12345678901234", File: buildFileHeader(t, "b.png", pngBytes(t, 4, 4))})
	require.NoError(t, err)
	require.NotEqual(t, first.Name, second.Name)
	require.True(t, strings.HasPrefix(second.Name, "12345678901234_"))
	require.True(t, strings.HasSuffix(second.Name, ".png"))
	require.Len(t, store.files, 2)
}

// racingStore reports a free name on Exists but loses the race on the first Save.
type racingStore struct {
	*memoryFileStore
	lost bool
}

func (r *racingStore) Save(ctx context.Context, category, name string, reader io.Reader) (string, error) {
	if !r.lost {
		r.lost = true
		return "", storage.ErrFileExists
	}
	return r.memoryFileStore.Save(ctx, category, name, reader)
}

func TestUploadServiceRetriesWhenSaveLosesRace(t *testing.T) {
	store := &racingStore{memoryFileStore: newMemoryFileStore()}
	svc := NewUploadService(store, 5, testLogger()).(*uploadService)
	svc.suffix = func() string { return "abc123" }

	stored, err := svc.Store(context.Background(), UploadRequest{Category: "students", Stem: "42", File: buildFileHeader(t, "p.jpg", pngBytes(t, 4, 4))})
	require.NoError(t, err)
	require.Equal(t, "42_abc123.jpg", stored.Name)
}

func TestUploadServiceDownscalesLargeImages(t *testing.T) {
	store := newMemoryFileStore()
	svc := NewUploadService(store, 5, testLogger())

	file := buildFileHeader(t, "wide.png", pngBytes(t, 2000, 1000))
	stored, err := svc.Store(context.Background(), UploadRequest{Category: "students", Stem: "wide", MaxDimension: 1024, File: file})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(store.files[stored.Path]))
	require.NoError(t, err)
	require.Equal(t, 1024, img.Bounds().Dx())
	require.Equal(t, 512, img.Bounds().Dy())
}
