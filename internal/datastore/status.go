package datastore

import (
	"context"
	"database/sql"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/models"
)

// StatusSnapshot returns dashboard rows for all URLs with their currently
// eligible subscribers and the minutes left in each alert window. The change
// count comes from the recorded history, so retired URLs report theirs too.
func (s *SQLiteStore) StatusSnapshot(ctx context.Context, now time.Time) ([]models.URLStatus, error) {
	query := `SELECT u.id, u.website_url, u.last_check, u.check_count, u.is_active,
			(SELECT COUNT(*) FROM alerts_history h WHERE h.monitored_url_id = u.id) AS changes_count
		FROM monitored_urls u ORDER BY u.id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query status snapshot")
		return nil, common.WrapError(err, "failed to query status snapshot")
	}
	defer rows.Close()

	var statuses []models.URLStatus
	for rows.Next() {
		var st models.URLStatus
		var lastCheck sql.NullTime
		var isActive int
		if err := rows.Scan(&st.URLID, &st.URL, &lastCheck, &st.CheckCount, &isActive, &st.ChangesDetected); err != nil {
			return nil, err
		}
		if lastCheck.Valid {
			st.LastCheck = lastCheck.Time
		}
		st.IsActive = isActive != 0
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range statuses {
		subs, err := s.GetEligibleSubscribers(ctx, statuses[i].URLID, now)
		if err != nil {
			return nil, err
		}
		statuses[i].Subscribers = make([]models.SubscriberStatus, 0, len(subs))
		for _, sub := range subs {
			minutesLeft := int(sub.ExpiresAt().Sub(now) / time.Minute)
			statuses[i].Subscribers = append(statuses[i].Subscribers, models.SubscriberStatus{
				SubscriberID: sub.ID,
				Email:        sub.Email,
				MinutesLeft:  minutesLeft,
			})
		}
	}
	return statuses, nil
}
