/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package studentstore

import (
	"context"
	"sync"

	"github.com/tomoncle/studentstore/database"
	"github.com/tomoncle/studentstore/model"
	"github.com/tomoncle/studentstore/repository"
	"github.com/tomoncle/studentstore/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Save inserts a new entity or overwrites the stored entity with the
	// same id, returning the persisted entity.
	Save(ctx context.Context, entity *T) (*T, error)

	// FindByID returns the entity with id, or found == false when absent.
	FindByID(ctx context.Context, id any) (entity *T, found bool, err error)

	// FindAll returns all entities in unspecified order.
	FindAll(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// DeleteByID removes an entity by its identifier, if present.
	DeleteByID(ctx context.Context, id any) error

	// DeleteAll removes every entity.
	DeleteAll(ctx context.Context) error

	// Count returns the number of stored entities.
	Count(ctx context.Context) (int, error)

	// WithTx returns a service whose operations run within tx.
	WithTx(tx bun.Tx) Service[T]

	// RunInTx runs fn within a new transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, svc Service[T]) error) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

// StudentStore is the Service over model.Student.
type StudentStore = Service[model.Student]

type baseServiceImpl[T any] struct {
	db   bun.IDB
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a Service backed by the global database connection,
// resolved on first use.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithDB returns a Service bound to db, which may be a *bun.DB or a bun.Tx.
func NewServiceWithDB[T any](db bun.IDB) Service[T] {
	return &baseServiceImpl[T]{db: db}
}

// NewStudentStore returns a StudentStore backed by the global database.
func NewStudentStore() StudentStore {
	return NewService[model.Student]()
}

// NewStudentStoreWithDB returns a StudentStore bound to db.
func NewStudentStoreWithDB(db bun.IDB) StudentStore {
	return NewServiceWithDB[model.Student](db)
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() {
		if s.repo != nil {
			return
		}
		if s.db == nil {
			s.db = database.GetDB()
		}
		s.repo = repository.NewRepository[T](s.db)
	})
	return s.repo
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, entity *T) (*T, error) {
	return s.baseRepo().Save(ctx, entity)
}

func (s *baseServiceImpl[T]) FindByID(ctx context.Context, id any) (*T, bool, error) {
	return s.baseRepo().FindByID(ctx, id)
}

func (s *baseServiceImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	return s.baseRepo().FindAll(ctx)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.baseRepo().List(ctx, filter)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) DeleteByID(ctx context.Context, id any) error {
	return s.baseRepo().DeleteByID(ctx, id)
}

func (s *baseServiceImpl[T]) DeleteAll(ctx context.Context) error {
	return s.baseRepo().DeleteAll(ctx)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context) (int, error) {
	return s.baseRepo().Count(ctx)
}

func (s *baseServiceImpl[T]) WithTx(tx bun.Tx) Service[T] {
	return NewServiceWithDB[T](tx)
}

func (s *baseServiceImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, svc Service[T]) error) error {
	return s.baseRepo().RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T]) error {
		return fn(ctx, &baseServiceImpl[T]{repo: repo})
	})
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect().Model((*T)(nil))
}
