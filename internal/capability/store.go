package capability

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic,
// letting every operation below run either standalone or nested in a
// caller's transaction.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store provides access to capability records and the download
// workflow tables. All mutating operations are serialisable per key;
// concurrent readers see a consistent snapshot of a single record.
type Store struct {
	db *sql.DB
}

// NewStore creates a new capability store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// UpsertCapability inserts or updates a Capability Record by
// rating_key inside a single transaction. If the incoming record is
// byte-identical (by observable field) to the stored one, this is a
// no-op and changed reports false.
func (s *Store) UpsertCapability(rec Record) (changed bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, mapSQLiteErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, getErr := getCapabilityTx(tx, rec.RatingKey)
	if getErr != nil && getErr != ErrNotFound {
		return false, getErr
	}
	if getErr == nil && existing.equalFields(rec) {
		return false, tx.Commit()
	}

	rec.LastUpdated = time.Now()
	_, err = tx.Exec(`
		INSERT INTO capabilities
			(rating_key, title, year, dv_profile, dv_fel, has_atmos, file_size, video_bitrate, audio_tracks, resolution, extra, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rating_key) DO UPDATE SET
			title=excluded.title, year=excluded.year, dv_profile=excluded.dv_profile,
			dv_fel=excluded.dv_fel, has_atmos=excluded.has_atmos, file_size=excluded.file_size,
			video_bitrate=excluded.video_bitrate, audio_tracks=excluded.audio_tracks,
			resolution=excluded.resolution, extra=excluded.extra, last_updated=excluded.last_updated`,
		rec.RatingKey, rec.Title, rec.Year, string(rec.DVProfile), rec.DVFEL, rec.HasAtmos,
		rec.FileSize, rec.VideoBitrate, rec.AudioTracks, rec.Resolution, rec.Extra, rec.LastUpdated,
	)
	if err != nil {
		return false, mapSQLiteErr(err)
	}
	if err := tx.Commit(); err != nil {
		return false, mapSQLiteErr(err)
	}
	return true, nil
}

func scanCapability(row interface{ Scan(dest ...any) error }) (Record, error) {
	var r Record
	var year sql.NullInt64
	var dvProfile string
	var lastUpdated string
	err := row.Scan(&r.RatingKey, &r.Title, &year, &dvProfile, &r.DVFEL, &r.HasAtmos,
		&r.FileSize, &r.VideoBitrate, &r.AudioTracks, &r.Resolution, &r.Extra, &lastUpdated)
	if err != nil {
		return Record{}, err
	}
	r.Year = int(year.Int64)
	r.DVProfile = DVProfile(dvProfile)
	r.LastUpdated, _ = time.Parse(time.RFC3339Nano, lastUpdated)
	return r, nil
}

func getCapabilityTx(q querier, ratingKey string) (Record, error) {
	row := q.QueryRow(`
		SELECT rating_key, title, year, dv_profile, dv_fel, has_atmos, file_size, video_bitrate, audio_tracks, resolution, extra, last_updated
		FROM capabilities WHERE rating_key = ?`, ratingKey)
	rec, err := scanCapability(row)
	if err != nil {
		return Record{}, mapSQLiteErr(err)
	}
	return rec, nil
}

// GetByKey returns the Capability Record for a single rating_key.
func (s *Store) GetByKey(ratingKey string) (Record, error) {
	return getCapabilityTx(s.db, ratingKey)
}

// GetAll returns every stored Capability Record.
func (s *Store) GetAll() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT rating_key, title, year, dv_profile, dv_fel, has_atmos, file_size, video_bitrate, audio_tracks, resolution, extra, last_updated
		FROM capabilities`)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanCapability(rows)
		if err != nil {
			return nil, mapSQLiteErr(err)
		}
		out = append(out, rec)
	}
	return out, mapSQLiteErr(rows.Err())
}

// GetWhere returns every Capability Record matching predicate.
func (s *Store) GetWhere(predicate Predicate) ([]Record, error) {
	var where string
	switch predicate {
	case PredicateHasDV:
		where = "dv_profile IS NOT NULL AND dv_profile != ''"
	case PredicateHasP7FEL:
		where = "dv_profile = '7' AND dv_fel = 1"
	case PredicateHasAtmos:
		where = "has_atmos = 1"
	default:
		return nil, fmt.Errorf("capability: unknown predicate %q", predicate)
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT rating_key, title, year, dv_profile, dv_fel, has_atmos, file_size, video_bitrate, audio_tracks, resolution, extra, last_updated
		FROM capabilities WHERE %s`, where))
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanCapability(rows)
		if err != nil {
			return nil, mapSQLiteErr(err)
		}
		out = append(out, rec)
	}
	return out, mapSQLiteErr(rows.Err())
}

// FindByTitleYear looks up a movie by normalised title and, when year
// is non-zero, an exact year match. Falls back to title-only when
// year is zero.
func (s *Store) FindByTitleYear(title string, year int) (Record, error) {
	normalized := strings.ToLower(strings.TrimSpace(title))
	if year != 0 {
		row := s.db.QueryRow(`
			SELECT rating_key, title, year, dv_profile, dv_fel, has_atmos, file_size, video_bitrate, audio_tracks, resolution, extra, last_updated
			FROM capabilities WHERE lower(title) = ? AND year = ?`, normalized, year)
		rec, err := scanCapability(row)
		if err != nil {
			return Record{}, mapSQLiteErr(err)
		}
		return rec, nil
	}
	row := s.db.QueryRow(`
		SELECT rating_key, title, year, dv_profile, dv_fel, has_atmos, file_size, video_bitrate, audio_tracks, resolution, extra, last_updated
		FROM capabilities WHERE lower(title) = ? ORDER BY last_updated DESC LIMIT 1`, normalized)
	rec, err := scanCapability(row)
	if err != nil {
		return Record{}, mapSQLiteErr(err)
	}
	return rec, nil
}
