package service

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/ndewijer/portfolio-analytics/internal/database"
	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sqlx.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sqlx.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion returns the application version together with the applied
// schema version. MigrationNeeded is set when embedded migrations have not run.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, pending, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	return model.VersionInfo{
		AppVersion:      version.Version,
		DbVersion:       strconv.FormatInt(current, 10),
		MigrationNeeded: pending,
	}, nil
}
