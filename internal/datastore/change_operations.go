package datastore

import (
	"context"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/models"
)

// RecordChange persists one detected change with its before and after content.
func (s *SQLiteStore) RecordChange(ctx context.Context, urlID int64, before, after string, detectedAt time.Time) (*models.ChangeRecord, error) {
	query := `INSERT INTO alerts_history (monitored_url_id, detected_at, content_before, content_after)
		VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, urlID, detectedAt.UTC(), before, after)
	if err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Msg("Failed to record change")
		return nil, common.WrapErrorf(err, "failed to record change for URL %d", urlID)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, common.WrapError(err, "failed to get last insert ID")
	}

	s.logger.Info().Int64("record_id", id).Int64("url_id", urlID).Msg("Recorded detected change")
	return &models.ChangeRecord{
		ID:            id,
		URLID:         urlID,
		DetectedAt:    detectedAt.UTC(),
		ContentBefore: before,
		ContentAfter:  after,
	}, nil
}

// MarkDelivered flips the sent flag of a change record for a channel. At
// least one successful delivery on the channel is enough to set it.
func (s *SQLiteStore) MarkDelivered(ctx context.Context, recordID int64, channel models.DeliveryChannel) error {
	var column string
	switch channel {
	case models.ChannelEmail:
		column = "email_sent"
	case models.ChannelSMS:
		column = "sms_sent"
	default:
		return common.NewValidationError("channel", channel, "unknown delivery channel")
	}

	query := "UPDATE alerts_history SET " + column + " = 1 WHERE id = ?"
	if _, err := s.db.ExecContext(ctx, query, recordID); err != nil {
		s.logger.Error().Err(err).Int64("record_id", recordID).Str("channel", string(channel)).Msg("Failed to mark delivery")
		return common.WrapErrorf(err, "failed to mark %s delivery for record %d", channel, recordID)
	}
	return nil
}

// CountChanges returns the number of recorded changes for a URL.
func (s *SQLiteStore) CountChanges(ctx context.Context, urlID int64) (int, error) {
	query := `SELECT COUNT(*) FROM alerts_history WHERE monitored_url_id = ?`
	var count int
	if err := s.db.QueryRowContext(ctx, query, urlID).Scan(&count); err != nil {
		s.logger.Error().Err(err).Int64("url_id", urlID).Msg("Failed to count changes")
		return 0, common.WrapErrorf(err, "failed to count changes for URL %d", urlID)
	}
	return count, nil
}
