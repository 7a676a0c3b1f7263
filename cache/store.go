package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/course"
)

// DefaultTTL is how long a stored course stays servable.
const DefaultTTL = 7 * 24 * time.Hour

// Store persists cached courses in SQLite.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	logger zerolog.Logger

	now func() time.Time // overridable for tests
}

// NewStore creates a Store. A non-positive ttl selects DefaultTTL.
func NewStore(db *sql.DB, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		db:     db,
		ttl:    ttl,
		logger: logger.With().Str("component", "courseCache").Logger(),
		now:    time.Now,
	}
}

// Lookup fetches the cached course for a query. Expiry is lazy: a row past
// its expiresAt is reported as a miss but not removed here. A hit increments
// the access count and stamps the access time before returning. A miss is
// (nil, nil), not an error.
func (s *Store) Lookup(ctx context.Context, query string) (*course.CachedCourse, error) {
	hash := QueryHash(query)

	queryStr, args, err := sq.Select("id", "query", "payload", "created_at", "expires_at", "access_count", "last_accessed_at").
		From("cached_courses").
		Where(sq.Eq{"query_hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		cached                             course.CachedCourse
		payload                            string
		createdAt, expiresAt, lastAccessed int64
	)
	row := s.db.QueryRowContext(ctx, queryStr, args...)
	if err := row.Scan(&cached.ID, &cached.Query, &payload, &createdAt, &expiresAt, &cached.AccessCount, &lastAccessed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached course: %w", err)
	}

	now := s.now()
	if !now.Before(time.Unix(expiresAt, 0)) {
		s.logger.Debug().Str("query_hash", hash).Msg("Cached course expired, treating as miss")
		return nil, nil
	}

	if err := json.Unmarshal([]byte(payload), &cached.Course); err != nil {
		return nil, fmt.Errorf("decode cached course: %w", err)
	}

	cached.QueryHash = hash
	cached.CreatedAt = time.Unix(createdAt, 0)
	cached.ExpiresAt = time.Unix(expiresAt, 0)
	cached.AccessCount++
	cached.LastAccessedAt = now

	updateStr, updateArgs, err := sq.Update("cached_courses").
		Set("access_count", cached.AccessCount).
		Set("last_accessed_at", now.Unix()).
		Where(sq.Eq{"query_hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, updateStr, updateArgs...); err != nil {
		return nil, fmt.Errorf("update access bookkeeping: %w", err)
	}

	s.logger.Info().Str("query_hash", hash).Int("access_count", cached.AccessCount).Msg("Cache hit")
	return &cached, nil
}

// Save upserts a completed course under the query's hash with a fresh expiry
// and a reset access count.
func (s *Store) Save(ctx context.Context, query string, result *course.Course) (*course.CachedCourse, error) {
	hash := QueryHash(query)
	now := s.now()

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}

	cached := &course.CachedCourse{
		ID:             uuid.NewString(),
		QueryHash:      hash,
		Query:          NormalizeQuery(query),
		Course:         *result,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
		AccessCount:    0,
		LastAccessedAt: now,
	}

	queryStr, args, err := sq.Insert("cached_courses").
		Columns("query_hash", "id", "query", "payload", "created_at", "expires_at", "access_count", "last_accessed_at").
		Values(hash, cached.ID, cached.Query, string(payload), now.Unix(), cached.ExpiresAt.Unix(), 0, now.Unix()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	// SQLite upsert: replace any previous entry for the same normalized query.
	queryStr = strings.Replace(queryStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)

	if _, err := s.db.ExecContext(ctx, queryStr, args...); err != nil {
		return nil, fmt.Errorf("store cached course: %w", err)
	}

	s.logger.Info().
		Str("query_hash", hash).
		Time("expires_at", cached.ExpiresAt).
		Msg("Course cached")
	return cached, nil
}

// PurgeExpired physically deletes rows past their expiry. The read path never
// does this; the daemon runs it on a schedule.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	queryStr, args, err := sq.Delete("cached_courses").
		Where(sq.LtOrEq{"expires_at": s.now().Unix()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return 0, fmt.Errorf("purge expired courses: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("Purged expired cached courses")
	}
	return deleted, nil
}
