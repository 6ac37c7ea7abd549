package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/models"
)

// CreateSubscriber registers a subscriber on a URL. The alert window starts
// at creation time.
func (s *SQLiteStore) CreateSubscriber(ctx context.Context, urlID int64, sub models.NewSubscription) (*models.Subscriber, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	minutes := int64(sub.PollingDuration / time.Minute)
	query := `INSERT INTO alert_subscribers (url_id, email, phone_number, carrier, polling_duration_minutes, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)`
	result, err := s.db.ExecContext(ctx, query, urlID, sub.Email,
		nullString(sub.PhoneNumber), nullString(sub.Carrier), minutes, now)
	if err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Msg("Failed to insert subscriber")
		return nil, common.WrapErrorf(err, "failed to insert subscriber for URL %d", urlID)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, common.WrapError(err, "failed to get last insert ID")
	}

	s.logger.Info().
		Int64("subscriber_id", id).
		Int64("url_id", urlID).
		Dur("polling_duration", sub.PollingDuration).
		Msg("Created subscriber")
	return &models.Subscriber{
		ID:              id,
		URLID:           urlID,
		Email:           sub.Email,
		PhoneNumber:     sub.PhoneNumber,
		Carrier:         sub.Carrier,
		PollingDuration: time.Duration(minutes) * time.Minute,
		IsActive:        true,
		CreatedAt:       now,
	}, nil
}

// GetSubscriber returns a subscriber by ID, or common.ErrNotFound.
func (s *SQLiteStore) GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error) {
	query := `SELECT id, url_id, email, phone_number, carrier, polling_duration_minutes, is_active, created_at
		FROM alert_subscribers WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("subscriber_id", id).Msg("Failed to get subscriber")
		return nil, common.WrapErrorf(err, "failed to get subscriber %d", id)
	}
	return sub, nil
}

// DeactivateSubscriber marks a subscriber inactive.
func (s *SQLiteStore) DeactivateSubscriber(ctx context.Context, id int64) error {
	query := `UPDATE alert_subscribers SET is_active = 0 WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("subscriber_id", id).Msg("Failed to deactivate subscriber")
		return common.WrapErrorf(err, "failed to deactivate subscriber %d", id)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return common.ErrNotFound
	}
	s.logger.Info().Int64("subscriber_id", id).Msg("Deactivated subscriber")
	return nil
}

// DeactivateSubscribersForURL marks every subscriber of a URL inactive, as
// part of an explicit stop of that URL's monitoring.
func (s *SQLiteStore) DeactivateSubscribersForURL(ctx context.Context, urlID int64) error {
	query := `UPDATE alert_subscribers SET is_active = 0 WHERE url_id = ?`
	result, err := s.db.ExecContext(ctx, query, urlID)
	if err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Msg("Failed to deactivate subscribers for URL")
		return common.WrapErrorf(err, "failed to deactivate subscribers for URL %d", urlID)
	}
	if affected, err := result.RowsAffected(); err == nil {
		s.logger.Info().Int64("url_id", urlID).Int64("count", affected).Msg("Deactivated subscribers for URL")
	}
	return nil
}

// GetEligibleSubscribers returns the subscribers of a URL that are active and
// inside their alert window at the given instant. Window arithmetic happens
// here rather than in SQL so it stays consistent with Subscriber.WithinWindow.
func (s *SQLiteStore) GetEligibleSubscribers(ctx context.Context, urlID int64, now time.Time) ([]models.Subscriber, error) {
	all, err := s.GetAllSubscribers(ctx, urlID)
	if err != nil {
		return nil, err
	}

	eligible := make([]models.Subscriber, 0, len(all))
	for _, sub := range all {
		if sub.WithinWindow(now) {
			eligible = append(eligible, sub)
		}
	}
	return eligible, nil
}

// GetAllSubscribers returns every subscriber ever registered on a URL.
func (s *SQLiteStore) GetAllSubscribers(ctx context.Context, urlID int64) ([]models.Subscriber, error) {
	query := `SELECT id, url_id, email, phone_number, carrier, polling_duration_minutes, is_active, created_at
		FROM alert_subscribers WHERE url_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, urlID)
	if err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Msg("Failed to list subscribers")
		return nil, common.WrapErrorf(err, "failed to list subscribers for URL %d", urlID)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var sub models.Subscriber
	var phone, carrier sql.NullString
	var minutes int64
	var isActive int

	err := row.Scan(&sub.ID, &sub.URLID, &sub.Email, &phone, &carrier, &minutes, &isActive, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	sub.PhoneNumber = phone.String
	sub.Carrier = carrier.String
	sub.PollingDuration = time.Duration(minutes) * time.Minute
	sub.IsActive = isActive != 0
	return &sub, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
