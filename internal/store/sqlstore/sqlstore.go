// Package sqlstore serves the store contract from a local gorm database.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const idColumn = "id"

var (
	errMissingDatabase   = errors.New("sqlstore: database handle is required")
	errMissingIDProvider = errors.New("sqlstore: id provider is required")
)

// tableSpec lists the columns the store fills on insert when the caller
// leaves them out, mirroring server-side column defaults.
type tableSpec struct {
	model            func() any
	timestampColumns []string
}

var tableSpecs = map[string]tableSpec{
	store.TableCases: {
		model:            func() any { return &records.Case{} },
		timestampColumns: []string{"created_at", "last_update"},
	},
	store.TableBlogPosts: {
		model:            func() any { return &records.BlogPost{} },
		timestampColumns: []string{"published_date", "updated_at"},
	},
	store.TableContactInquiries: {
		model:            func() any { return &records.ContactInquiry{} },
		timestampColumns: []string{"created_at"},
	},
	store.TableTrademarkApplications: {
		model:            func() any { return &records.TrademarkApplication{} },
		timestampColumns: []string{"created_at", "updated_at"},
	},
}

// Models returns the row types served by the store, for schema migration.
func Models() []any {
	models := make([]any, 0, len(tableSpecs))
	for _, table := range []string{
		store.TableCases,
		store.TableBlogPosts,
		store.TableContactInquiries,
		store.TableTrademarkApplications,
	} {
		models = append(models, tableSpecs[table].model())
	}
	return models
}

// Config describes the dependencies of the sqlite-backed store.
type Config struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Store implements store.Store over gorm.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	ids    IDProvider
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// New constructs a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	ids := cfg.IDProvider
	if ids == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: cfg.Database, clock: clock, ids: ids, logger: logger}, nil
}

// Select loads the rows matching query into dest.
func (s *Store) Select(ctx context.Context, query store.Query, dest any) error {
	tx, err := s.scoped(ctx, query)
	if err != nil {
		return err
	}
	if query.Order != nil {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: query.Order.Column},
			Desc:   query.Order.Descending,
		})
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	return tx.Find(dest).Error
}

// Insert assigns the row identifier and default timestamps, inserts the row
// and loads it back into dest.
func (s *Store) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	spec, ok := tableSpecs[table]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrUnknownTable, table)
	}

	row := make(map[string]any, len(values)+len(spec.timestampColumns)+1)
	for column, value := range values {
		row[column] = value
	}
	id, ok := row[idColumn].(string)
	if !ok || id == "" {
		generated, err := s.ids.NewID()
		if err != nil {
			return err
		}
		id = generated
		row[idColumn] = id
	}
	now := s.clock().UTC()
	for _, column := range spec.timestampColumns {
		if _, present := row[column]; !present {
			row[column] = now
		}
	}

	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return err
	}
	s.logger.Debug("row inserted", zap.String("table", table), zap.String("id", id))
	return s.Select(ctx, store.From(table).Eq(idColumn, id), dest)
}

// Update applies values to the matching rows and loads them back into dest.
func (s *Store) Update(ctx context.Context, query store.Query, values map[string]any, dest any) error {
	tx, err := s.scoped(ctx, query)
	if err != nil {
		return err
	}
	if len(query.Filters) == 0 {
		return gorm.ErrMissingWhereClause
	}
	if err := tx.Updates(values).Error; err != nil {
		return err
	}
	return s.Select(ctx, store.Query{Table: query.Table, Filters: query.Filters}, dest)
}

// Delete removes the matching rows and reports how many were removed.
func (s *Store) Delete(ctx context.Context, query store.Query) (int64, error) {
	tx, err := s.scoped(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(query.Filters) == 0 {
		return 0, gorm.ErrMissingWhereClause
	}
	result := tx.Delete(tableSpecs[query.Table].model())
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Count reports the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	if _, ok := tableSpecs[table]; !ok {
		return 0, fmt.Errorf("%w: %s", store.ErrUnknownTable, table)
	}
	var count int64
	if err := s.db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) scoped(ctx context.Context, query store.Query) (*gorm.DB, error) {
	if _, ok := tableSpecs[query.Table]; !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownTable, query.Table)
	}
	tx := s.db.WithContext(ctx).Table(query.Table)
	for _, filter := range query.Filters {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: filter.Column}, Value: filter.Value})
	}
	return tx, nil
}
