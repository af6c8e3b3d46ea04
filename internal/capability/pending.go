package capability

import (
	"database/sql"
	"time"
)

// StorePending persists a new Pending Download row.
func (s *Store) StorePending(p PendingDownload) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO pending_downloads
			(request_id, movie_title, year, target_folder, torrent_url, quality_type, status, telegram_message_id, download_data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RequestID, p.MovieTitle, p.Year, p.TargetFolder, p.TorrentURL, string(p.QualityType),
		string(StatusPending), p.TelegramMessageID, p.DownloadData, p.CreatedAt, p.ExpiresAt,
	)
	if err != nil {
		return 0, mapSQLiteErr(err)
	}
	return result.LastInsertId()
}

// SetTelegramMessage records the Telegram message id returned by
// posting the approval dialogue against an already-persisted Pending
// Download.
func (s *Store) SetTelegramMessage(requestID string, messageID int64) error {
	_, err := s.db.Exec(`UPDATE pending_downloads SET telegram_message_id = ? WHERE request_id = ?`, messageID, requestID)
	return mapSQLiteErr(err)
}

func scanPending(row interface{ Scan(dest ...any) error }) (PendingDownload, error) {
	var p PendingDownload
	var year sql.NullInt64
	var quality, status string
	var telegramID sql.NullInt64
	var createdAt, expiresAt string
	var approvedAt, completedAt sql.NullString

	err := row.Scan(&p.ID, &p.RequestID, &p.MovieTitle, &year, &p.TargetFolder, &p.TorrentURL,
		&quality, &status, &telegramID, &p.DownloadData, &createdAt, &approvedAt, &completedAt, &expiresAt)
	if err != nil {
		return PendingDownload{}, err
	}
	p.Year = int(year.Int64)
	p.QualityType = QualityType(quality)
	p.Status = PendingStatus(status)
	p.TelegramMessageID = telegramID.Int64
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresAt)
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, approvedAt.String)
		p.ApprovedAt = &t
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
		p.CompletedAt = &t
	}
	return p, nil
}

const pendingColumns = `id, request_id, movie_title, year, target_folder, torrent_url, quality_type, status, telegram_message_id, download_data, created_at, approved_at, completed_at, expires_at`

// GetPending looks up a single Pending Download by request_id.
func (s *Store) GetPending(requestID string) (PendingDownload, error) {
	row := s.db.QueryRow(`SELECT `+pendingColumns+` FROM pending_downloads WHERE request_id = ?`, requestID)
	p, err := scanPending(row)
	if err != nil {
		return PendingDownload{}, mapSQLiteErr(err)
	}
	return p, nil
}

// GetPendingByTelegramMessage recovers the active pending row for a
// Telegram message_id from the store when the in-memory map has been lost to a restart.
func (s *Store) GetPendingByTelegramMessage(messageID int64) (PendingDownload, error) {
	row := s.db.QueryRow(`SELECT `+pendingColumns+` FROM pending_downloads WHERE telegram_message_id = ? AND status = ?`,
		messageID, string(StatusPending))
	p, err := scanPending(row)
	if err != nil {
		return PendingDownload{}, mapSQLiteErr(err)
	}
	return p, nil
}

// ListPending returns every Pending Download in the given status, or
// all statuses when status is empty.
func (s *Store) ListPending(status PendingStatus) ([]PendingDownload, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(`SELECT ` + pendingColumns + ` FROM pending_downloads ORDER BY created_at`)
	} else {
		rows, err = s.db.Query(`SELECT `+pendingColumns+` FROM pending_downloads WHERE status = ? ORDER BY created_at`, string(status))
	}
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	defer rows.Close()

	var out []PendingDownload
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, mapSQLiteErr(err)
		}
		out = append(out, p)
	}
	return out, mapSQLiteErr(rows.Err())
}

// FindDuplicatePending implements process_discovery's dedupe rule:
// a pending row created within the last second carrying the same
// natural key (title+year+quality_type) counts as a duplicate.
func (s *Store) FindDuplicatePending(title string, year int, quality QualityType, within time.Duration) (bool, error) {
	cutoff := time.Now().Add(-within)
	row := s.db.QueryRow(`
		SELECT COUNT(1) FROM pending_downloads
		WHERE movie_title = ? AND year = ? AND quality_type = ? AND created_at >= ?`,
		title, year, string(quality), cutoff)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, mapSQLiteErr(err)
	}
	return count > 0, nil
}

func (s *Store) transitionPending(requestID string, from, to PendingStatus, extra func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return mapSQLiteErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	if err := tx.QueryRow(`SELECT status FROM pending_downloads WHERE request_id = ?`, requestID).Scan(&current); err != nil {
		return mapSQLiteErr(err)
	}
	if PendingStatus(current) == to {
		// Idempotent replay: already in the target state.
		return tx.Commit()
	}
	if !PendingStatus(current).CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	if extra != nil {
		if err := extra(tx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MarkStarted transitions pending → downloading, recording the
// approval time and qBittorrent torrent hash.
func (s *Store) MarkStarted(requestID, torrentHash string) error {
	return s.transitionPending(requestID, StatusPending, StatusDownloading, func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE pending_downloads SET status = ?, approved_at = ?, download_data = json_set(download_data, '$.torrent_hash', ?) WHERE request_id = ?`,
			string(StatusDownloading), time.Now(), torrentHash, requestID)
		return mapSQLiteErr(err)
	})
}

// MarkCompleted transitions downloading → completed.
func (s *Store) MarkCompleted(requestID string) error {
	return s.transitionPending(requestID, StatusDownloading, StatusCompleted, func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE pending_downloads SET status = ?, completed_at = ? WHERE request_id = ?`,
			string(StatusCompleted), time.Now(), requestID)
		return mapSQLiteErr(err)
	})
}

// MarkDeclined transitions pending → declined.
func (s *Store) MarkDeclined(requestID string) error {
	return s.transitionPending(requestID, StatusPending, StatusDeclined, func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE pending_downloads SET status = ? WHERE request_id = ?`, string(StatusDeclined), requestID)
		return mapSQLiteErr(err)
	})
}

// ExpirePending transitions every pending row with expires_at < now
// to expired. Returns the request_ids that were expired.
func (s *Store) ExpirePending(now time.Time) ([]string, error) {
	rows, err := s.db.Query(`SELECT request_id FROM pending_downloads WHERE status = ? AND expires_at < ?`, string(StatusPending), now)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, mapSQLiteErr(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteErr(err)
	}

	for _, id := range ids {
		if _, err := s.db.Exec(`UPDATE pending_downloads SET status = ? WHERE request_id = ?`, string(StatusExpired), id); err != nil {
			return nil, mapSQLiteErr(err)
		}
	}
	return ids, nil
}

// DeletePending removes a Pending Download row from the active
// table; its history rows (if any) are untouched.
func (s *Store) DeletePending(requestID string) error {
	_, err := s.db.Exec(`DELETE FROM pending_downloads WHERE request_id = ?`, requestID)
	return mapSQLiteErr(err)
}

// AppendHistory records one audit row for a download attempt.
func (s *Store) AppendHistory(e HistoryEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO download_history (request_id, movie_title, year, quality_type, outcome, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.MovieTitle, e.Year, string(e.QualityType), e.Outcome, e.Detail, time.Now())
	return mapSQLiteErr(err)
}

// RecentHistory returns the most recent history rows, newest first.
func (s *Store) RecentHistory(limit int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, request_id, movie_title, year, quality_type, outcome, detail, recorded_at
		FROM download_history ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var year sql.NullInt64
		var quality, recordedAt string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.MovieTitle, &year, &quality, &e.Outcome, &e.Detail, &recordedAt); err != nil {
			return nil, mapSQLiteErr(err)
		}
		e.Year = int(year.Int64)
		e.QualityType = QualityType(quality)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		out = append(out, e)
	}
	return out, mapSQLiteErr(rows.Err())
}
