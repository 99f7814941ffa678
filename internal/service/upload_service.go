package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/art-exam-api/internal/observability"
	"github.com/noah-isme/art-exam-api/pkg/storage"
)

var (
	// ErrUploadMissing indicates no file was attached to the request.
	ErrUploadMissing = errors.New("file is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates the file could not be decoded as an image.
	ErrUploadScanFailed = errors.New("file scanning failed")
)

const maxNameAttempts = 5

// FileStore persists files by category and name. Save must not overwrite an
// existing file and reports storage.ErrFileExists instead.
type FileStore interface {
	Exists(ctx context.Context, category, name string) (bool, error)
	Save(ctx context.Context, category, name string, reader io.Reader) (string, error)
}

// UploadRequest describes one image to validate and store.
type UploadRequest struct {
	Category string
	// Stem is the preferred file name without extension. The sanitized
	// original name is used when empty.
	Stem string
	// MaxDimension downsizes images that exceed it in either direction. Zero keeps the original size.
	MaxDimension int
	File         *multipart.FileHeader
}

// StoredUpload describes a file written to the store.
type StoredUpload struct {
	Path      string
	Name      string
	MimeType  string
	SizeBytes int64
}

// UploadService validates image uploads and writes them under collision-free names.
type UploadService interface {
	Store(ctx context.Context, req UploadRequest) (StoredUpload, error)
}

type uploadService struct {
	store   FileStore
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
	suffix  func() string
}

// NewUploadService constructs an upload service.
func NewUploadService(store FileStore, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		store:   store,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/art-exam-api/internal/service/upload"),
		suffix:  randomSuffix,
	}
}

func (s *uploadService) Store(ctx context.Context, req UploadRequest) (StoredUpload, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(
		attribute.String("upload.category", req.Category),
		attribute.Int64("upload.max_bytes", s.maxSize),
	)

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	file := req.File
	if file == nil {
		span.RecordError(ErrUploadMissing)
		span.SetStatus(codes.Error, "validation failed")
		return StoredUpload{}, ErrUploadMissing
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return StoredUpload{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return StoredUpload{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return StoredUpload{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return StoredUpload{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	mime := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", mime.String()))
	if !isAllowedImage(mime.String()) {
		return StoredUpload{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	ext := sanitizeExt(filepath.Ext(file.Filename))
	if ext == "" {
		ext = mime.Extension()
	}

	payload, err := s.normalize(buf.Bytes(), ext, req.MaxDimension)
	if err != nil {
		return StoredUpload{}, s.reject(span, "scan", err)
	}

	stem := sanitizeStem(req.Stem)
	if stem == "" {
		stem = sanitizeStem(strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename)))
	}
	if stem == "" {
		stem = fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	path, name, err := s.save(ctx, req.Category, stem, ext, payload)
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return StoredUpload{}, err
	}

	span.SetAttributes(
		attribute.String("upload.stored_name", name),
		attribute.Int64("upload.size_bytes", int64(len(payload))),
	)
	span.SetStatus(codes.Ok, "stored")

	return StoredUpload{
		Path:      path,
		Name:      name,
		MimeType:  mime.String(),
		SizeBytes: int64(len(payload)),
	}, nil
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

// save writes payload under stem+ext, falling back to stem_<suffix>+ext when
// the name is taken. Collisions are never reported to the caller.
func (s *uploadService) save(ctx context.Context, category, stem, ext string, payload []byte) (string, string, error) {
	name := stem + ext
	exists, err := s.store.Exists(ctx, category, name)
	if err != nil {
		return "", "", err
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if exists {
			name = fmt.Sprintf("%s_%s%s", stem, s.suffix(), ext)
		}

		path, err := s.store.Save(ctx, category, name, bytes.NewReader(payload))
		if errors.Is(err, storage.ErrFileExists) {
			s.logger.Debug().Str("category", category).Str("name", name).Msg("stored name taken, retrying with suffix")
			exists = true
			continue
		}
		if err != nil {
			return "", "", err
		}
		return path, name, nil
	}

	return "", "", fmt.Errorf("could not find a free name for %s%s: %w", stem, ext, storage.ErrFileExists)
}

// normalize decodes the image and shrinks it to fit maxDimension. The original
// bytes are kept when no resize is needed.
func (s *uploadService) normalize(payload []byte, ext string, maxDimension int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadScanFailed, err)
	}

	bounds := img.Bounds()
	if maxDimension <= 0 || (bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension) {
		return payload, nil
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.PNG
	}

	resized := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	out := bytes.NewBuffer(nil)
	if err := imaging.Encode(out, resized, format); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}

	s.logger.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("max_dimension", maxDimension).
		Msg("image downscaled")

	return out.Bytes(), nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func sanitizeStem(name string) string {
	base := strings.TrimSpace(name)
	base = strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	return strings.Trim(base, "-")
}

// sanitizeExt keeps the extension as uploaded, including its case, and drops
// anything that is not a letter or digit.
func sanitizeExt(ext string) string {
	cleaned := strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return -1
	}, strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if cleaned == "" {
		return ""
	}
	return "." + cleaned
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isAllowedImage(m string) bool {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}
