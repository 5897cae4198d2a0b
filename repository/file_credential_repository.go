// ABOUTME: This file implements CredentialRepository over per-platform JSON token files
// ABOUTME: Files are opened read-only and never rewritten, refreshed or deleted

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"feed-publisher/models"
)

var (
	// ErrCredentialsNotFound indicates the token file for the platform does not exist.
	ErrCredentialsNotFound = errors.New("credentials not found")
	// ErrCredentialsMalformed indicates the token file exists but could not be parsed.
	ErrCredentialsMalformed = errors.New("credentials malformed")
)

// FileCredentialRepository reads platform credentials from JSON token files
// maintained by an external authorization process.
type FileCredentialRepository struct {
	paths  map[models.Platform]string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewFileCredentialRepository creates a repository over the given token file paths.
func NewFileCredentialRepository(paths map[models.Platform]string, logger *slog.Logger) *FileCredentialRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileCredentialRepository{
		paths:  paths,
		logger: logger,
	}
}

// Load reads and parses the credential record for a platform.
// Missing files map to ErrCredentialsNotFound and unparseable or empty
// records map to ErrCredentialsMalformed so callers can report a precise
// token status without string matching.
func (r *FileCredentialRepository) Load(ctx context.Context, platform models.Platform) (*models.PlatformCredentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok := r.paths[platform]
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: no token file configured for platform %s", ErrCredentialsNotFound, platform)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("Token file does not exist",
				"platform", platform,
				"file_path", path)
			return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
		}
		return nil, fmt.Errorf("failed to read token file %s: %w", path, err)
	}

	var creds models.PlatformCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		r.logger.Warn("Token file is not valid JSON",
			"platform", platform,
			"file_path", path,
			"error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrCredentialsMalformed, path, err)
	}

	if creds.AccessToken() == "" {
		return nil, fmt.Errorf("%w: %s: no access token present", ErrCredentialsMalformed, path)
	}

	r.logger.Debug("Loaded platform credentials",
		"platform", platform,
		"file_path", path,
		"has_page_token", creds.PageAccessToken != "",
		"has_user_token", creds.UserAccessToken != "")

	return &creds, nil
}
