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

package repository

import (
	"context"
	"errors"

	"github.com/tomoncle/studentstore/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	// ErrNoPrimaryKey is returned for models without exactly one primary key column.
	ErrNoPrimaryKey = errors.New("repository: model must have exactly one primary key")
	// ErrDuplicateKey wraps unique constraint violations reported by the backend.
	ErrDuplicateKey = errors.New("repository: duplicate key")
	ErrNilEntity    = errors.New("repository: entity is nil")
)

// CrudRepository defines identity-keyed CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	// Save inserts entity when its primary key is zero, letting the backend
	// assign the key, and otherwise overwrites the row with that key,
	// inserting it if absent. The key is written back into entity.
	Save(ctx context.Context, entity *T) (*T, error)

	// FindByID returns the entity with the given key; found is false and err
	// is nil when no such row exists.
	FindByID(ctx context.Context, id any) (entity *T, found bool, err error)

	// FindAll returns every entity in unspecified order, never nil.
	FindAll(ctx context.Context) ([]*T, error)

	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// DeleteByID removes the entity with the given key. A missing key is not an error.
	DeleteByID(ctx context.Context, id any) error

	DeleteAll(ctx context.Context) error

	Count(ctx context.Context) (int, error)

	// Upsert inserts entities, updating fields on conflict with
	// conflictKeys (the primary key when empty).
	Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error
}

// TransactionRepository binds repository operations to a transaction.
type TransactionRepository[T any] interface {
	WithTx(tx bun.Tx) Repository[T]
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T]) error) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD, pagination, and transactional operations and
// exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
