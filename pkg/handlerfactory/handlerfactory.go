// Package handlerfactory builds the standard create/read/update/delete gin
// handlers for any gorm model reachable through a Repository.
package handlerfactory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trip/pkg/apifeatures"
	"trip/pkg/utils"
)

// Repository is the storage capability the handlers need. FindByID returns
// nil, nil when the record does not exist.
type Repository[T any] interface {
	Query(ctx context.Context) *gorm.DB
	Create(ctx context.Context, item *T) error
	FindByID(ctx context.Context, id uuid.UUID, preload ...string) (*T, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, item *T) error
}

type identified interface {
	Identity() (uuid.UUID, time.Time)
	SetIdentity(id uuid.UUID, createdAt time.Time)
}

type defaulter interface {
	ApplyDefaults()
}

type Options[T any] struct {
	// Preload names the associations GetOne expands.
	Preload []string

	// ParentParam scopes GetAll to ParentColumn = :ParentParam when the route carries it.
	ParentParam  string
	ParentColumn string

	MaxLimit int

	// BeforeCreate runs after binding, before insert.
	BeforeCreate func(c *gin.Context, item *T) error
	// Authorize runs on the stored record before update or delete.
	Authorize func(c *gin.Context, item *T) error
	// Protect copies fields clients may not change from stored onto patched.
	Protect func(stored, patched *T)
	// Patch reads the update document; defaults to the raw JSON body.
	Patch func(c *gin.Context) ([]byte, error)
}

type Factory[T any] struct {
	repo Repository[T]
	opts Options[T]
}

func New[T any](repo Repository[T], opts Options[T]) *Factory[T] {
	return &Factory[T]{repo: repo, opts: opts}
}

func (f *Factory[T]) CreateOne() gin.HandlerFunc {
	return utils.Wrap(func(c *gin.Context) error {
		item := new(T)
		if d, ok := any(item).(defaulter); ok {
			d.ApplyDefaults()
		}
		if err := c.ShouldBindJSON(item); err != nil {
			return err
		}
		if m, ok := any(item).(identified); ok {
			m.SetIdentity(uuid.Nil, time.Time{})
		}
		if f.opts.BeforeCreate != nil {
			if err := f.opts.BeforeCreate(c, item); err != nil {
				return err
			}
		}

		if err := f.repo.Create(c.Request.Context(), item); err != nil {
			return err
		}
		utils.RespondCreated(c, item)
		return nil
	})
}

func (f *Factory[T]) GetOne() gin.HandlerFunc {
	return utils.Wrap(func(c *gin.Context) error {
		item, err := f.load(c, f.opts.Preload...)
		if err != nil {
			return err
		}
		utils.RespondSuccess(c, item, "")
		return nil
	})
}

func (f *Factory[T]) GetAll() gin.HandlerFunc {
	return utils.Wrap(func(c *gin.Context) error {
		query := f.repo.Query(c.Request.Context())
		if f.opts.ParentParam != "" {
			if raw := c.Param(f.opts.ParentParam); raw != "" {
				parentID, err := ParseID(f.opts.ParentParam, raw)
				if err != nil {
					return err
				}
				query = query.Where(clause.Eq{
					Column: clause.Column{Table: clause.CurrentTable, Name: f.opts.ParentColumn},
					Value:  parentID,
				})
			}
		}

		features := apifeatures.New(query, new(T), c.Request.URL.Query()).
			WithMaxLimit(f.opts.MaxLimit).
			Filter().
			Sort().
			LimitFields().
			Paginate()
		if features.Err != nil {
			return features.Err
		}

		items := make([]T, 0)
		if err := features.Query().Find(&items).Error; err != nil {
			return err
		}

		if fields := features.Fields(); fields != nil {
			projected, err := apifeatures.Project(items, fields)
			if err != nil {
				return err
			}
			utils.RespondList(c, len(projected), projected)
			return nil
		}
		utils.RespondList(c, len(items), items)
		return nil
	})
}

// UpdateOne merges the request document onto the stored record, saves it
// through the model hooks and answers with the record as re-read from the store.
func (f *Factory[T]) UpdateOne() gin.HandlerFunc {
	return utils.Wrap(func(c *gin.Context) error {
		item, err := f.load(c)
		if err != nil {
			return err
		}
		if f.opts.Authorize != nil {
			if err := f.opts.Authorize(c, item); err != nil {
				return err
			}
		}
		stored := *item

		var patch []byte
		if f.opts.Patch != nil {
			patch, err = f.opts.Patch(c)
		} else {
			patch, err = c.GetRawData()
		}
		if err != nil {
			return err
		}
		if len(patch) > 0 {
			if err := json.Unmarshal(patch, item); err != nil {
				return err
			}
		}

		if m, ok := any(item).(identified); ok {
			id, createdAt := any(&stored).(identified).Identity()
			m.SetIdentity(id, createdAt)
		}
		if f.opts.Protect != nil {
			f.opts.Protect(&stored, item)
		}

		ctx := c.Request.Context()
		if err := f.repo.Update(ctx, item); err != nil {
			return err
		}

		id, _ := idOf(item)
		fresh, err := f.repo.FindByID(ctx, id, f.opts.Preload...)
		if err != nil {
			return err
		}
		if fresh == nil {
			return utils.ErrNoDocument
		}
		utils.RespondSuccess(c, fresh, "")
		return nil
	})
}

func (f *Factory[T]) DeleteOne() gin.HandlerFunc {
	return utils.Wrap(func(c *gin.Context) error {
		item, err := f.load(c)
		if err != nil {
			return err
		}
		if f.opts.Authorize != nil {
			if err := f.opts.Authorize(c, item); err != nil {
				return err
			}
		}
		if err := f.repo.Delete(c.Request.Context(), item); err != nil {
			return err
		}
		utils.RespondNoContent(c)
		return nil
	})
}

func (f *Factory[T]) load(c *gin.Context, preload ...string) (*T, error) {
	id, err := ParseID("id", c.Param("id"))
	if err != nil {
		return nil, err
	}
	item, err := f.repo.FindByID(c.Request.Context(), id, preload...)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, utils.ErrNoDocument
	}
	return item, nil
}

// ParseID converts a path segment to an id, reporting failures as a CastError on field.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &utils.CastError{Field: field, Value: raw, Err: err}
	}
	return id, nil
}

func idOf(item any) (uuid.UUID, bool) {
	m, ok := item.(identified)
	if !ok {
		return uuid.Nil, false
	}
	id, _ := m.Identity()
	return id, true
}
