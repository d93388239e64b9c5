package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/query"
	"gorm.io/gorm"
)

// Store is the GORM-backed generic data-store accessor. One instance is
// bound per resource type; every CRUD handler goes through it.
type Store[T any] struct {
	db *gorm.DB
}

func NewStore[T any](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

func (s *Store[T]) Insert(ctx context.Context, doc *T) error {
	return translate(s.db.WithContext(ctx).Create(doc).Error)
}

func (s *Store[T]) FindByID(ctx context.Context, id uuid.UUID, expand ...string) (*T, error) {
	var doc T
	q := s.db.WithContext(ctx)
	for _, rel := range expand {
		q = q.Preload(rel)
	}
	if err := q.First(&doc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (s *Store[T]) FindAll(ctx context.Context, spec *query.Spec, scope map[string]any, expand ...string) ([]T, error) {
	q := s.db.WithContext(ctx).Model(new(T))
	if len(scope) > 0 {
		q = q.Where(scope)
	}
	q = spec.Apply(q)
	for _, rel := range expand {
		q = q.Preload(rel)
	}
	var docs []T
	if err := q.Find(&docs).Error; err != nil {
		return nil, translate(err)
	}
	return docs, nil
}

func (s *Store[T]) Save(ctx context.Context, doc *T) error {
	return translate(s.db.WithContext(ctx).Save(doc).Error)
}

func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// translate maps GORM's typed errors onto the error kinds the rest of the
// system keys on. Unrecognized errors pass through as store failures.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.BadRequest("referenced resource does not exist")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return domain.BadRequest("invalid field value")
	default:
		return err
	}
}
