// ABOUTME: Read-only token store resolving per-platform credential status
// ABOUTME: Loads once per run and caches; never writes or refreshes tokens

package service

import (
	"context"
	"errors"
	"log/slog"

	"feed-publisher/models"
	"feed-publisher/repository"
)

// TokenStore exposes platform credentials for one run. Credentials are
// loaded lazily and cached so preflight and posting see a consistent view
// even if the files change mid-run.
type TokenStore struct {
	repo   repository.CredentialRepository
	logger *slog.Logger

	cache  map[models.Platform]*models.PlatformCredentials
	status map[models.Platform]models.TokenStatus
}

// NewTokenStore creates a token store over the given credential repository.
func NewTokenStore(repo repository.CredentialRepository, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{
		repo:   repo,
		logger: logger,
		cache:  make(map[models.Platform]*models.PlatformCredentials),
		status: make(map[models.Platform]models.TokenStatus),
	}
}

// Status resolves the credential status for a platform: valid, missing,
// malformed or expired. An expired record is reported distinctly so the
// operator log names the real problem, but it is just as unusable.
func (s *TokenStore) Status(ctx context.Context, platform models.Platform) models.TokenStatus {
	if status, ok := s.status[platform]; ok {
		return status
	}

	status := s.resolve(ctx, platform)
	s.status[platform] = status

	if !status.Usable() {
		s.logger.Warn("Platform credentials unusable",
			"platform", platform,
			"status", status)
	}

	return status
}

// Credentials returns the cached credentials for a platform. Callers must
// check Status first; posting with unusable credentials is a caller bug.
func (s *TokenStore) Credentials(ctx context.Context, platform models.Platform) (*models.PlatformCredentials, error) {
	if !s.Status(ctx, platform).Usable() {
		return nil, errors.New("credentials not usable for platform " + string(platform))
	}
	return s.cache[platform], nil
}

func (s *TokenStore) resolve(ctx context.Context, platform models.Platform) models.TokenStatus {
	creds, err := s.repo.Load(ctx, platform)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCredentialsNotFound):
			return models.TokenStatusMissing
		case errors.Is(err, repository.ErrCredentialsMalformed):
			return models.TokenStatusMalformed
		default:
			s.logger.Error("Failed to load credentials", "platform", platform, "error", err)
			return models.TokenStatusMissing
		}
	}

	if !creds.Complete(platform) {
		return models.TokenStatusMalformed
	}
	if creds.Expired() {
		return models.TokenStatusExpired
	}

	s.cache[platform] = creds
	return models.TokenStatusValid
}
