// Package store persists the library, quality profiles, custom formats, the
// download queue and the blocklist in SQLite, and materializes them into an
// immutable decision snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/releasedecider/internal/customformat"
	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/library/snapshotfile"
)

var (
	ErrNotFound = errors.New("not found")
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides access to library state.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a store over a migrated database.
func New(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveProfile inserts or updates a quality profile. A profile with ID 0 is
// inserted and receives its new ID. Marking a profile as default clears the
// flag on every other profile.
func (s *Store) SaveProfile(ctx context.Context, p *quality.Profile, isDefault bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(q querier) error {
		return saveProfile(ctx, q, p, isDefault)
	})
}

func saveProfile(ctx context.Context, q querier, p *quality.Profile, isDefault bool) error {
	items, err := quality.SerializeItems(p.Items)
	if err != nil {
		return fmt.Errorf("failed to serialize profile items: %w", err)
	}
	languages, err := json.Marshal(nonNil(p.Languages))
	if err != nil {
		return fmt.Errorf("failed to serialize profile languages: %w", err)
	}

	if isDefault {
		if _, err := q.ExecContext(ctx, `UPDATE quality_profiles SET is_default = 0`); err != nil {
			return fmt.Errorf("failed to clear default profile: %w", err)
		}
	}

	now := time.Now().UTC()
	if p.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO quality_profiles (name, cutoff, items, upgrade_allowed, min_format_score,
				min_upgrade_format_score, languages, is_default, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Cutoff, items, p.UpgradeAllowed, p.MinFormatScore,
			p.MinUpgradeFormatScore, string(languages), isDefault, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert profile %q: %w", p.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = id
		p.CreatedAt, p.UpdatedAt = now, now
		return nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO quality_profiles (id, name, cutoff, items, upgrade_allowed, min_format_score,
			min_upgrade_format_score, languages, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cutoff = excluded.cutoff,
			items = excluded.items,
			upgrade_allowed = excluded.upgrade_allowed,
			min_format_score = excluded.min_format_score,
			min_upgrade_format_score = excluded.min_upgrade_format_score,
			languages = excluded.languages,
			is_default = CASE WHEN excluded.is_default THEN 1 ELSE quality_profiles.is_default END,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Cutoff, items, p.UpgradeAllowed, p.MinFormatScore,
		p.MinUpgradeFormatScore, string(languages), isDefault, now, now)
	if err != nil {
		return fmt.Errorf("failed to save profile %q: %w", p.Name, err)
	}
	p.UpdatedAt = now
	return nil
}

const profileColumns = `id, name, cutoff, items, upgrade_allowed, min_format_score,
	min_upgrade_format_score, languages, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (quality.Profile, error) {
	var (
		p         quality.Profile
		items     string
		languages string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Cutoff, &items, &p.UpgradeAllowed, &p.MinFormatScore,
		&p.MinUpgradeFormatScore, &languages, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	var err error
	if p.Items, err = quality.DeserializeItems(items); err != nil {
		return p, fmt.Errorf("profile %d items: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(languages), &p.Languages); err != nil {
		return p, fmt.Errorf("profile %d languages: %w", p.ID, err)
	}
	if len(p.Languages) == 0 {
		p.Languages = nil
	}
	return p, nil
}

// GetProfile returns the profile with the given ID.
func (s *Store) GetProfile(ctx context.Context, id int64) (quality.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM quality_profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return p, err
}

// DefaultProfile returns the profile flagged as default.
func (s *Store) DefaultProfile(ctx context.Context) (quality.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM quality_profiles WHERE is_default = 1 LIMIT 1`)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("default profile: %w", ErrNotFound)
	}
	return p, err
}

// ListProfiles returns every profile ordered by ID.
func (s *Store) ListProfiles(ctx context.Context) ([]quality.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM quality_profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []quality.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SaveCustomFormat validates and stores a custom format. A format with ID 0
// is inserted and receives its new ID.
func (s *Store) SaveCustomFormat(ctx context.Context, f *customformat.Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return saveCustomFormat(ctx, s.db, f)
}

func saveCustomFormat(ctx context.Context, q querier, f *customformat.Format) error {
	conditions, err := json.Marshal(f.Conditions)
	if err != nil {
		return fmt.Errorf("failed to serialize conditions: %w", err)
	}
	if f.ID == 0 {
		res, err := q.ExecContext(ctx,
			`INSERT INTO custom_formats (name, score, conditions) VALUES (?, ?, ?)`,
			f.Name, f.Score, string(conditions))
		if err != nil {
			return fmt.Errorf("failed to insert custom format %q: %w", f.Name, err)
		}
		f.ID, err = res.LastInsertId()
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO custom_formats (id, name, score, conditions) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, score = excluded.score, conditions = excluded.conditions`,
		f.ID, f.Name, f.Score, string(conditions))
	if err != nil {
		return fmt.Errorf("failed to save custom format %q: %w", f.Name, err)
	}
	return nil
}

// ListCustomFormats returns every custom format ordered by ID.
func (s *Store) ListCustomFormats(ctx context.Context) ([]customformat.Format, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, score, conditions FROM custom_formats ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom formats: %w", err)
	}
	defer rows.Close()

	var formats []customformat.Format
	for rows.Next() {
		var (
			f          customformat.Format
			conditions string
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Score, &conditions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(conditions), &f.Conditions); err != nil {
			return nil, fmt.Errorf("custom format %d conditions: %w", f.ID, err)
		}
		formats = append(formats, f)
	}
	return formats, rows.Err()
}

// SaveSeries inserts or updates a series and replaces its aliases.
func (s *Store) SaveSeries(ctx context.Context, series *library.Series) error {
	return s.withTx(ctx, func(q querier) error {
		return saveSeries(ctx, q, series)
	})
}

func saveSeries(ctx context.Context, q querier, series *library.Series) error {
	if series.AddedAt.IsZero() {
		series.AddedAt = time.Now().UTC()
	}
	if series.FormatType == "" {
		series.FormatType = library.FormatStandard
	}
	if series.Status == "" {
		series.Status = "continuing"
	}

	if series.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO series (title, year, tvdb_id, quality_profile_id, monitored, status, format_type, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			series.Title, series.Year, series.TvdbID, series.QualityProfileID, series.Monitored,
			series.Status, series.FormatType, series.AddedAt)
		if err != nil {
			return fmt.Errorf("failed to insert series %q: %w", series.Title, err)
		}
		if series.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		_, err := q.ExecContext(ctx, `
			INSERT INTO series (id, title, year, tvdb_id, quality_profile_id, monitored, status, format_type, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				year = excluded.year,
				tvdb_id = excluded.tvdb_id,
				quality_profile_id = excluded.quality_profile_id,
				monitored = excluded.monitored,
				status = excluded.status,
				format_type = excluded.format_type`,
			series.ID, series.Title, series.Year, series.TvdbID, series.QualityProfileID, series.Monitored,
			series.Status, series.FormatType, series.AddedAt)
		if err != nil {
			return fmt.Errorf("failed to save series %q: %w", series.Title, err)
		}
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM series_aliases WHERE series_id = ?`, series.ID); err != nil {
		return fmt.Errorf("failed to clear aliases: %w", err)
	}
	for _, alias := range series.Aliases {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO series_aliases (series_id, alias) VALUES (?, ?)`, series.ID, alias); err != nil {
			return fmt.Errorf("failed to save alias %q: %w", alias, err)
		}
	}
	return nil
}

// ListSeries returns every series with its aliases, ordered by ID.
func (s *Store) ListSeries(ctx context.Context) ([]library.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, year, tvdb_id, quality_profile_id, monitored, status, format_type, added_at
		FROM series ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	var all []library.Series
	index := make(map[int64]int)
	for rows.Next() {
		var sr library.Series
		if err := rows.Scan(&sr.ID, &sr.Title, &sr.Year, &sr.TvdbID, &sr.QualityProfileID, &sr.Monitored,
			&sr.Status, &sr.FormatType, &sr.AddedAt); err != nil {
			rows.Close()
			return nil, err
		}
		index[sr.ID] = len(all)
		all = append(all, sr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	aliases, err := s.db.QueryContext(ctx, `SELECT series_id, alias FROM series_aliases ORDER BY series_id, alias`)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer aliases.Close()
	for aliases.Next() {
		var (
			id    int64
			alias string
		)
		if err := aliases.Scan(&id, &alias); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			all[i].Aliases = append(all[i].Aliases, alias)
		}
	}
	return all, aliases.Err()
}

// SaveEpisode inserts or updates an episode together with its file. An
// episode without a file has any stored file removed.
func (s *Store) SaveEpisode(ctx context.Context, ep *library.Episode) error {
	return s.withTx(ctx, func(q querier) error {
		return saveEpisode(ctx, q, ep)
	})
}

func saveEpisode(ctx context.Context, q querier, ep *library.Episode) error {
	var airDate sql.NullTime
	if ep.AirDate != nil {
		airDate = sql.NullTime{Time: ep.AirDate.UTC(), Valid: true}
	}

	if ep.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO episodes (series_id, season_number, episode_number, absolute_number, title, air_date, monitored)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ep.SeriesID, ep.SeasonNumber, ep.EpisodeNumber, ep.AbsoluteNumber, ep.Title, airDate, ep.Monitored)
		if err != nil {
			return fmt.Errorf("failed to insert episode S%02dE%02d: %w", ep.SeasonNumber, ep.EpisodeNumber, err)
		}
		if ep.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	} else {
		_, err := q.ExecContext(ctx, `
			INSERT INTO episodes (id, series_id, season_number, episode_number, absolute_number, title, air_date, monitored)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				series_id = excluded.series_id,
				season_number = excluded.season_number,
				episode_number = excluded.episode_number,
				absolute_number = excluded.absolute_number,
				title = excluded.title,
				air_date = excluded.air_date,
				monitored = excluded.monitored`,
			ep.ID, ep.SeriesID, ep.SeasonNumber, ep.EpisodeNumber, ep.AbsoluteNumber, ep.Title, airDate, ep.Monitored)
		if err != nil {
			return fmt.Errorf("failed to save episode %d: %w", ep.ID, err)
		}
	}

	if ep.File == nil {
		_, err := q.ExecContext(ctx, `DELETE FROM episode_files WHERE episode_id = ?`, ep.ID)
		return err
	}

	f := ep.File
	f.EpisodeID = ep.ID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	err := q.QueryRowContext(ctx, `
		INSERT INTO episode_files (episode_id, path, size, quality_id, revision_version, revision_real,
			is_repack, custom_format_score, release_group, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(episode_id) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			quality_id = excluded.quality_id,
			revision_version = excluded.revision_version,
			revision_real = excluded.revision_real,
			is_repack = excluded.is_repack,
			custom_format_score = excluded.custom_format_score,
			release_group = excluded.release_group
		RETURNING id`,
		f.EpisodeID, f.Path, f.Size, f.Quality.Quality.ID, max(f.Quality.Revision.Version, 1),
		f.Quality.Revision.Real, f.Quality.Revision.IsRepack, f.CustomFormatScore, f.ReleaseGroup, f.CreatedAt).
		Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to save file for episode %d: %w", ep.ID, err)
	}
	return nil
}

// ListEpisodes returns every episode with its file, ordered by series,
// season and episode.
func (s *Store) ListEpisodes(ctx context.Context) ([]library.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.series_id, e.season_number, e.episode_number, e.absolute_number, e.title,
			e.air_date, e.monitored,
			f.id, f.path, f.size, f.quality_id, f.revision_version, f.revision_real, f.is_repack,
			f.custom_format_score, f.release_group, f.created_at
		FROM episodes e
		LEFT JOIN episode_files f ON f.episode_id = e.id
		ORDER BY e.series_id, e.season_number, e.episode_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []library.Episode
	for rows.Next() {
		var (
			ep       library.Episode
			airDate  sql.NullTime
			fileID   sql.NullInt64
			path     sql.NullString
			size     sql.NullInt64
			qualID   sql.NullInt64
			version  sql.NullInt64
			realRev  sql.NullInt64
			repack   sql.NullBool
			score    sql.NullInt64
			group    sql.NullString
			imported sql.NullTime
		)
		if err := rows.Scan(&ep.ID, &ep.SeriesID, &ep.SeasonNumber, &ep.EpisodeNumber, &ep.AbsoluteNumber,
			&ep.Title, &airDate, &ep.Monitored,
			&fileID, &path, &size, &qualID, &version, &realRev, &repack, &score, &group, &imported); err != nil {
			return nil, err
		}
		if airDate.Valid {
			t := airDate.Time
			ep.AirDate = &t
		}
		if fileID.Valid {
			q, ok := quality.GetQualityByID(int(qualID.Int64))
			if !ok {
				q = quality.Unknown
			}
			ep.File = &library.EpisodeFile{
				ID:        fileID.Int64,
				EpisodeID: ep.ID,
				Path:      path.String,
				Size:      size.Int64,
				Quality: quality.Model{Quality: q, Revision: quality.Revision{
					Version:  int(version.Int64),
					Real:     int(realRev.Int64),
					IsRepack: repack.Bool,
				}},
				CustomFormatScore: int(score.Int64),
				ReleaseGroup:      group.String,
				CreatedAt:         imported.Time,
			}
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// AddToQueue records a release as downloading, replacing an entry with the
// same GUID.
func (s *Store) AddToQueue(ctx context.Context, item decisioning.QueueItem) error {
	return addToQueue(ctx, s.db, item)
}

func addToQueue(ctx context.Context, q querier, item decisioning.QueueItem) error {
	if item.GUID == "" {
		return errors.New("queue item needs a guid")
	}
	episodes, err := json.Marshal(nonNil(item.EpisodeIDs))
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT OR REPLACE INTO download_queue (guid, title, series_id, episode_ids, quality_id,
			revision_version, revision_real, custom_format_score, protocol)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.GUID, item.Title, item.SeriesID, string(episodes), item.Quality.Quality.ID,
		max(item.Quality.Revision.Version, 1), item.Quality.Revision.Real, item.CustomFormatScore, string(item.Protocol))
	if err != nil {
		return fmt.Errorf("failed to queue %q: %w", item.Title, err)
	}
	return nil
}

// RemoveFromQueue deletes a queue entry.
func (s *Store) RemoveFromQueue(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM download_queue WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("failed to remove %q from queue: %w", guid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("queue item %q: %w", guid, ErrNotFound)
	}
	return nil
}

// ListQueue returns the download queue in insertion order.
func (s *Store) ListQueue(ctx context.Context) ([]decisioning.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guid, title, series_id, episode_ids, quality_id, revision_version, revision_real,
			custom_format_score, protocol
		FROM download_queue ORDER BY added_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	var items []decisioning.QueueItem
	for rows.Next() {
		var (
			item      decisioning.QueueItem
			episodes  string
			qualityID int
			protocol  string
		)
		if err := rows.Scan(&item.GUID, &item.Title, &item.SeriesID, &episodes, &qualityID,
			&item.Quality.Revision.Version, &item.Quality.Revision.Real, &item.CustomFormatScore, &protocol); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(episodes), &item.EpisodeIDs); err != nil {
			return nil, fmt.Errorf("queue item %q episodes: %w", item.GUID, err)
		}
		if q, ok := quality.GetQualityByID(qualityID); ok {
			item.Quality.Quality = q
		}
		item.Protocol = types.Protocol(protocol)
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddToBlocklist records a failed release.
func (s *Store) AddToBlocklist(ctx context.Context, item decisioning.BlocklistItem) error {
	return addToBlocklist(ctx, s.db, item)
}

func addToBlocklist(ctx context.Context, q querier, item decisioning.BlocklistItem) error {
	var published sql.NullTime
	if !item.PublishDate.IsZero() {
		published = sql.NullTime{Time: item.PublishDate.UTC(), Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO blocklist (guid, title, series_id, info_hash, indexer, protocol, publish_date, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.GUID, item.Title, item.SeriesID, item.InfoHash, item.Indexer, string(item.Protocol), published, item.Reason)
	if err != nil {
		return fmt.Errorf("failed to blocklist %q: %w", item.Title, err)
	}
	return nil
}

// ListBlocklist returns every blocklisted release, oldest first.
func (s *Store) ListBlocklist(ctx context.Context) ([]decisioning.BlocklistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guid, title, series_id, info_hash, indexer, protocol, publish_date, reason
		FROM blocklist ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocklist: %w", err)
	}
	defer rows.Close()

	var items []decisioning.BlocklistItem
	for rows.Next() {
		var (
			item      decisioning.BlocklistItem
			protocol  string
			published sql.NullTime
		)
		if err := rows.Scan(&item.GUID, &item.Title, &item.SeriesID, &item.InfoHash, &item.Indexer,
			&protocol, &published, &item.Reason); err != nil {
			return nil, err
		}
		item.Protocol = types.Protocol(protocol)
		if published.Valid {
			item.PublishDate = published.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Import writes the contents of a snapshot file in one transaction. Existing
// rows with the same IDs are updated.
func (s *Store) Import(ctx context.Context, file *snapshotfile.File) error {
	if err := file.Profile.Validate(); err != nil {
		return err
	}
	err := s.withTx(ctx, func(q querier) error {
		if err := saveProfile(ctx, q, &file.Profile.Profile, true); err != nil {
			return err
		}
		for i := range file.Profiles {
			if err := file.Profiles[i].Validate(); err != nil {
				return err
			}
			if err := saveProfile(ctx, q, &file.Profiles[i].Profile, false); err != nil {
				return err
			}
		}
		for i := range file.Formats {
			if err := file.Formats[i].Validate(); err != nil {
				return err
			}
			if err := saveCustomFormat(ctx, q, &file.Formats[i]); err != nil {
				return err
			}
		}
		for i := range file.Series {
			if err := saveSeries(ctx, q, &file.Series[i]); err != nil {
				return err
			}
		}
		for i := range file.Episodes {
			if err := saveEpisode(ctx, q, &file.Episodes[i]); err != nil {
				return err
			}
		}
		for _, item := range file.Queue {
			if err := addToQueue(ctx, q, item); err != nil {
				return err
			}
		}
		for _, item := range file.Blocklist {
			if err := addToBlocklist(ctx, q, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int("series", len(file.Series)).
		Int("episodes", len(file.Episodes)).
		Int("profiles", len(file.Profiles)+1).
		Int("customFormats", len(file.Formats)).
		Msg("Imported snapshot")
	return nil
}

// LoadSnapshot reads the whole library into an immutable decision snapshot.
// Settings are left to the engine.
func (s *Store) LoadSnapshot(ctx context.Context) (decisioning.Snapshot, error) {
	var snap decisioning.Snapshot

	profile, err := s.DefaultProfile(ctx)
	if err != nil {
		return snap, err
	}
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return snap, err
	}
	formats, err := s.ListCustomFormats(ctx)
	if err != nil {
		return snap, err
	}
	series, err := s.ListSeries(ctx)
	if err != nil {
		return snap, err
	}
	episodes, err := s.ListEpisodes(ctx)
	if err != nil {
		return snap, err
	}
	queue, err := s.ListQueue(ctx)
	if err != nil {
		return snap, err
	}
	blocklist, err := s.ListBlocklist(ctx)
	if err != nil {
		return snap, err
	}

	byID := make(map[int64]quality.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	s.logger.Debug().
		Int("series", len(series)).
		Int("episodes", len(episodes)).
		Int("queue", len(queue)).
		Int("blocklist", len(blocklist)).
		Msg("Loaded snapshot")

	return decisioning.Snapshot{
		Library:   library.NewSnapshot(series, episodes),
		Profile:   profile,
		Profiles:  byID,
		Formats:   formats,
		Queue:     queue,
		Blocklist: blocklist,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
