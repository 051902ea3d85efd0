package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type scope = func(*gorm.DB) *gorm.DB

// crudRepository is the storage shared by every entity. Scopes apply to every
// read; preloads maps association names to the columns loaded for them.
type crudRepository[T any] struct {
	db       *gorm.DB
	scopes   []scope
	preloads map[string]scope
}

func newCrudRepository[T any](db *gorm.DB, scopes ...scope) crudRepository[T] {
	return crudRepository[T]{db: db, scopes: scopes, preloads: map[string]scope{}}
}

func (r *crudRepository[T]) conn(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db)
}

func (r *crudRepository[T]) Query(ctx context.Context) *gorm.DB {
	return r.conn(ctx).Model(new(T)).Scopes(r.scopes...)
}

func (r *crudRepository[T]) Create(ctx context.Context, item *T) error {
	return r.conn(ctx).Create(item).Error
}

func (r *crudRepository[T]) FindByID(ctx context.Context, id uuid.UUID, preload ...string) (*T, error) {
	return r.findOne(r.withPreloads(r.Query(ctx), preload...), byColumn("id", id))
}

// Update writes every column except id and createdAt so zero values persist.
func (r *crudRepository[T]) Update(ctx context.Context, item *T) error {
	return r.conn(ctx).
		Model(item).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(item).Error
}

func (r *crudRepository[T]) Delete(ctx context.Context, item *T) error {
	return r.conn(ctx).Delete(item).Error
}

func (r *crudRepository[T]) withPreloads(q *gorm.DB, names ...string) *gorm.DB {
	for _, name := range names {
		if fn, ok := r.preloads[name]; ok {
			q = q.Preload(name, fn)
		} else {
			q = q.Preload(name)
		}
	}
	return q
}

func (r *crudRepository[T]) findOne(q *gorm.DB, conds ...clause.Expression) (*T, error) {
	var item T
	for _, cond := range conds {
		q = q.Where(cond)
	}
	if err := q.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func byColumn(name string, value any) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: name}, Value: value}
}

// publicProfileColumns loads the author shape exposed on reviews.
func publicProfileColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "photo")
}
