package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores media in Cloudinary using the same dated folder layout as the
// local store.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Exists reports whether an asset with the given name is already stored in
// today's folder for category.
func (s *Service) Exists(ctx context.Context, category, name string) (bool, error) {
	result, err := s.client.Admin.Asset(ctx, admin.AssetParams{PublicID: s.publicID(category, name)})
	if err != nil {
		return false, fmt.Errorf("failed to look up asset: %w", err)
	}
	if result == nil || result.Error.Message != "" {
		return false, nil
	}
	return true, nil
}

// Save uploads the file without overwriting and returns its secure URL.
func (s *Service) Save(ctx context.Context, category, name string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		PublicID:     s.publicID(category, name),
		Overwrite:    api.Bool(false),
		ResourceType: "image",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

func (s *Service) publicID(category, name string) string {
	today := s.now()
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := []string{category, today.Format("2006"), today.Format("01"), today.Format("02"), base}
	if s.folder != "" {
		parts = append([]string{s.folder}, parts...)
	}
	return path.Join(parts...)
}
