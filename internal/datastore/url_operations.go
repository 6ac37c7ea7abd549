package datastore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/models"
)

// CreateOrReactivateURL upserts the row for a normalized URL and marks it
// active. Reactivating an inactive row resets its check counter so the new
// monitoring run starts counting from zero.
func (s *SQLiteStore) CreateOrReactivateURL(ctx context.Context, url string) (*models.MonitoredURL, error) {
	existing, err := s.getURLByAddress(ctx, url)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if !existing.IsActive {
			query := `UPDATE monitored_urls SET is_active = 1, check_count = 0 WHERE id = ?`
			if _, err := s.db.ExecContext(ctx, query, existing.ID); err != nil {
				s.logger.Error().Err(err).Int64("url_id", existing.ID).Msg("Failed to reactivate URL")
				return nil, common.WrapErrorf(err, "failed to reactivate URL %d", existing.ID)
			}
			s.logger.Info().Int64("url_id", existing.ID).Str("url", url).Msg("Reactivated monitored URL")
			existing.IsActive = true
			existing.CheckCount = 0
		}
		return existing, nil
	}

	now := time.Now().UTC()
	query := `INSERT INTO monitored_urls (website_url, is_active, created_at) VALUES (?, 1, ?)`
	result, err := s.db.ExecContext(ctx, query, url, now)
	if err != nil {
		s.logger.Error().Err(err).Str("url", url).Msg("Failed to insert monitored URL")
		return nil, common.WrapErrorf(err, "failed to insert monitored URL %s", url)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, common.WrapError(err, "failed to get last insert ID")
	}

	s.logger.Info().Int64("url_id", id).Str("url", url).Msg("Created monitored URL")
	return &models.MonitoredURL{
		ID:         id,
		WebsiteURL: url,
		IsActive:   true,
		CreatedAt:  now,
	}, nil
}

// UpdateURLState applies a partial update to a URL's check state.
func (s *SQLiteStore) UpdateURLState(ctx context.Context, urlID int64, update models.URLStateUpdate) error {
	setClauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if !update.LastCheck.IsZero() {
		setClauses = append(setClauses, "last_check = ?")
		args = append(args, update.LastCheck.UTC())
	}
	if update.LastContent != nil {
		setClauses = append(setClauses, "last_content = ?")
		args = append(args, *update.LastContent)
	}
	if update.LastDebug != nil {
		setClauses = append(setClauses, "last_debug = ?")
		args = append(args, *update.LastDebug)
	}
	if update.ResetCount {
		setClauses = append(setClauses, "check_count = 0")
	} else if update.IncrementCount {
		setClauses = append(setClauses, "check_count = check_count + 1")
	}

	if len(setClauses) == 0 {
		return nil
	}

	query := "UPDATE monitored_urls SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	args = append(args, urlID)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Msg("Failed to update URL state")
		return common.WrapErrorf(err, "failed to update state for URL %d", urlID)
	}
	return nil
}

// SetURLActive toggles a URL's active flag.
func (s *SQLiteStore) SetURLActive(ctx context.Context, urlID int64, active bool) error {
	query := `UPDATE monitored_urls SET is_active = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, boolToInt(active), urlID); err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Bool("active", active).Msg("Failed to set URL active flag")
		return common.WrapErrorf(err, "failed to set active flag for URL %d", urlID)
	}
	s.logger.Debug().Int64("url_id", urlID).Bool("active", active).Msg("Updated URL active flag")
	return nil
}

// ListActiveURLs returns all active URLs, for restart replay.
func (s *SQLiteStore) ListActiveURLs(ctx context.Context) ([]models.MonitoredURL, error) {
	query := `SELECT id, website_url, last_check, last_content, last_debug, check_count, is_active, created_at
		FROM monitored_urls WHERE is_active = 1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list active URLs")
		return nil, common.WrapError(err, "failed to list active URLs")
	}
	defer rows.Close()

	var urls []models.MonitoredURL
	for rows.Next() {
		u, err := scanMonitoredURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, *u)
	}
	return urls, rows.Err()
}

func (s *SQLiteStore) getURLByAddress(ctx context.Context, url string) (*models.MonitoredURL, error) {
	query := `SELECT id, website_url, last_check, last_content, last_debug, check_count, is_active, created_at
		FROM monitored_urls WHERE website_url = ?`
	row := s.db.QueryRowContext(ctx, query, url)
	u, err := scanMonitoredURL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMonitoredURL(row rowScanner) (*models.MonitoredURL, error) {
	var u models.MonitoredURL
	var lastCheck sql.NullTime
	var lastContent, lastDebug sql.NullString
	var isActive int

	err := row.Scan(&u.ID, &u.WebsiteURL, &lastCheck, &lastContent, &lastDebug, &u.CheckCount, &isActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastCheck.Valid {
		u.LastCheck = lastCheck.Time
	}
	u.LastContent = lastContent.String
	u.LastDebug = lastDebug.String
	u.IsActive = isActive != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
