package postgres

import (
	"context"
	"errors"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type KpiPostgreSQL struct {
	db *gorm.DB
}

func NewKpiPostgreSQL(db *gorm.DB) repositories.KpiRepository {
	return &KpiPostgreSQL{db: db}
}

// byScopeRef filters on scope_ref. Org-level rows store a NULL scope_ref,
// which needs an explicit IS NULL predicate.
func byScopeRef(query *gorm.DB, scopeRef *uint) *gorm.DB {
	if scopeRef == nil {
		return query.Where("scope_ref IS NULL")
	}
	return query.Where("scope_ref = ?", *scopeRef)
}

// Upsert writes the snapshot, replacing the values of an existing row
// with the same (scope, scope_ref, date) key so the periodic job stays
// idempotent within a period. An ON CONFLICT arbiter cannot do this for
// org-level rows because Postgres unique indexes treat NULL scope_ref
// values as distinct, so the row is looked up first.
func (k *KpiPostgreSQL) Upsert(ctx context.Context, kpi *models.Kpi) error {
	var existing models.Kpi
	err := byScopeRef(k.db.WithContext(ctx), kpi.ScopeRef).
		Where("scope = ? AND date = ?", kpi.Scope, kpi.Date).
		First(&existing).Error
	switch {
	case err == nil:
		kpi.ID = existing.ID
		kpi.CreatedAt = existing.CreatedAt
		return k.db.WithContext(ctx).Save(kpi).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return k.db.WithContext(ctx).Create(kpi).Error
	default:
		return err
	}
}

func (k *KpiPostgreSQL) ListByScope(ctx context.Context, scope models.KpiScope, scopeRef *uint) ([]*models.Kpi, error) {
	query := byScopeRef(k.db.WithContext(ctx), scopeRef).Where("scope = ?", scope)

	var kpis []*models.Kpi
	err := query.Order("date ASC").Find(&kpis).Error
	if err != nil {
		return nil, err
	}
	return kpis, nil
}
