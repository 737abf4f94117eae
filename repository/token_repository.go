// Package repository is the persistence layer for token records.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/cppla/evsign/models"
	"github.com/cppla/evsign/utils"
)

var (
	ErrNotFound = errors.New("token not found")
	ErrConflict = errors.New("token already exists")
)

const (
	cachePrefix  = "cache:tokens:"
	listCacheKey = cachePrefix + "list"
	listCacheTTL = 10 * time.Minute
)

// TokenRepository reads and writes the tokens table. The cache is optional.
type TokenRepository struct {
	db    *gorm.DB
	cache utils.Cache
}

// NewTokenRepository returns a repository; cache may be nil.
func NewTokenRepository(db *gorm.DB, cache utils.Cache) *TokenRepository {
	return &TokenRepository{db: db, cache: cache}
}

// Stats summarises the stored records.
type Stats struct {
	Total         int64 `json:"total"`
	Due           int64 `json:"due"`
	LastSucceeded int64 `json:"last_succeeded"`
	LastFailed    int64 `json:"last_failed"`
	NeverRun      int64 `json:"never_run"`
}

// ListAll returns every record, newest id first. An empty table yields an empty slice.
func (r *TokenRepository) ListAll(ctx context.Context) ([]models.Token, error) {
	if r.cache != nil {
		if b, ok := r.cache.GetBytes(ctx, listCacheKey); ok {
			var cached []models.Token
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached, nil
			}
		}
	}

	tokens := []models.Token{}
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	if r.cache != nil {
		if b, err := json.Marshal(tokens); err == nil {
			r.cache.SetBytes(ctx, listCacheKey, b, listCacheTTL)
		}
	}
	return tokens, nil
}

// FindByID loads a single record.
func (r *TokenRepository) FindByID(ctx context.Context, id uint) (*models.Token, error) {
	var t models.Token
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find token %d: %w", id, err)
	}
	return &t, nil
}

// Create inserts a record with no result yet.
func (r *TokenRepository) Create(ctx context.Context, accountName, token string, next time.Time) (*models.Token, error) {
	t := &models.Token{
		AccountName:       accountName,
		Token:             token,
		NextExecutionTime: next.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("create token: %w", err)
	}
	r.invalidate(ctx)
	return t, nil
}

// Update replaces the label and credential. Schedule and result fields are untouched.
func (r *TokenRepository) Update(ctx context.Context, id uint, accountName, token string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Token
		if err := tx.Select("id").First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Model(&t).
			Select("AccountName", "Token").
			Updates(models.Token{AccountName: accountName, Token: token}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ErrNotFound
		case isDuplicate(err):
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("update token %d: %w", id, err)
	}
	r.invalidate(ctx)
	return nil
}

// Delete removes a record.
func (r *TokenRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Token{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete token %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx)
	return nil
}

// FindDue returns records whose next execution time is at or before asOf, oldest first.
func (r *TokenRepository) FindDue(ctx context.Context, asOf time.Time) ([]models.Token, error) {
	tokens := []models.Token{}
	err := r.db.WithContext(ctx).
		Where("next_execution_time <= ?", asOf.UTC()).
		Order("next_execution_time ASC, id ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("find due tokens: %w", err)
	}
	return tokens, nil
}

// UpdateScheduleAndResult records a scheduled execution.
func (r *TokenRepository) UpdateScheduleAndResult(ctx context.Context, id uint, next, last time.Time, outcome *models.Outcome) error {
	lastUTC := last.UTC()
	return r.updateFields(ctx, id, models.Token{
		NextExecutionTime: next.UTC(),
		LastExecutionTime: &lastUTC,
		LastResult:        outcome,
	}, "NextExecutionTime", "LastExecutionTime", "LastResult")
}

// UpdateResult records a manual execution and leaves the schedule alone.
func (r *TokenRepository) UpdateResult(ctx context.Context, id uint, last time.Time, outcome *models.Outcome) error {
	lastUTC := last.UTC()
	return r.updateFields(ctx, id, models.Token{
		LastExecutionTime: &lastUTC,
		LastResult:        outcome,
	}, "LastExecutionTime", "LastResult")
}

// updateFields uses a struct with Select so the JSON serializer on LastResult applies.
func (r *TokenRepository) updateFields(ctx context.Context, id uint, values models.Token, fields ...string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Token{ID: id}).
		Select(fields).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update token %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx)
	return nil
}

// Stats counts records by schedule and last outcome.
func (r *TokenRepository) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var rows []models.Token
	err := r.db.WithContext(ctx).
		Select("id", "next_execution_time", "last_execution_time", "last_result").
		Find(&rows).Error
	if err != nil {
		return Stats{}, fmt.Errorf("token stats: %w", err)
	}

	var s Stats
	for i := range rows {
		t := &rows[i]
		s.Total++
		if t.IsDue(now) {
			s.Due++
		}
		switch {
		case t.LastResult == nil:
			s.NeverRun++
		case t.LastResult.Success:
			s.LastSucceeded++
		default:
			s.LastFailed++
		}
	}
	return s, nil
}

func (r *TokenRepository) invalidate(ctx context.Context) {
	if r.cache != nil {
		r.cache.InvalidateByPrefix(ctx, cachePrefix)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return false
}
