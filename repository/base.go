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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/studentstore/database"
	"github.com/tomoncle/studentstore/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db bun.IDB
}

// NewRepository returns a generic repository backed by the provided Bun
// database or transaction.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	return &baseRepositoryImpl[T]{db: tx}
}

// RunInTx runs fn with a repository bound to a new transaction, committing
// when fn returns nil and rolling back otherwise.
func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T]) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, r.WithTx(tx))
	})
}

func (r *baseRepositoryImpl[T]) table() *schema.Table {
	return r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
}

func (r *baseRepositoryImpl[T]) primaryKey() (*schema.Table, *schema.Field, error) {
	table := r.table()
	if len(table.PKs) != 1 {
		return nil, nil, fmt.Errorf("%w: %s has %d", ErrNoPrimaryKey, table.TypeName, len(table.PKs))
	}
	return table, table.PKs[0], nil
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}
	table, pk, err := r.primaryKey()
	if err != nil {
		return nil, err
	}

	if pk.HasZeroValue(reflect.ValueOf(entity).Elem()) {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			return nil, wrapWriteError("insert", table, err)
		}
		return entity, nil
	}

	if err := r.upsert(ctx, dataColumns(table), []string{pk.Name}, []*T{entity}); err != nil {
		return nil, wrapWriteError("save", table, err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id any) (*T, bool, error) {
	_, pk, err := r.primaryKey()
	if err != nil {
		return nil, false, err
	}
	entity := new(T)
	err = r.db.NewSelect().
		Model(entity).
		Where("?TableAlias.? = ?", bun.Ident(pk.Name), id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find by id %v: %w", id, err)
	}
	return entity, true, nil
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	return r.List(ctx, nil)
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table().TypeName, err)
	}
	if entities == nil {
		entities = make([]*T, 0)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) DeleteByID(ctx context.Context, id any) error {
	_, pk, err := r.primaryKey()
	if err != nil {
		return err
	}
	var entity T
	_, err = r.db.NewDelete().
		Model(&entity).
		Where("? = ?", bun.Ident(pk.Name), id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete by id %v: %w", id, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) DeleteAll(ctx context.Context) error {
	var entity T
	// bun refuses DELETE without a WHERE clause
	if _, err := r.db.NewDelete().Model(&entity).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("delete all %s: %w", r.table().TypeName, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().Model((*T)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table().TypeName, err)
	}
	return count, nil
}

// Page returns the requested slice ordered by the request orders, or by
// primary key when none are given.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(types.DefaultPage, types.DefaultPageSize)
	}
	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if filter := pageRequest.GetFilter(); filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	pagination := types.NewPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}

	orders := pageRequest.GetOrders()
	if len(orders) == 0 {
		if _, pk, err := r.primaryKey(); err == nil {
			orders = []string{pk.Name + " ASC"}
		}
	}
	err = query.
		Order(orders...).
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	if entities != nil {
		pagination.Items = entities
	}
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error {
	if len(entities) == 0 {
		return nil
	}
	for _, entity := range entities {
		if entity == nil {
			return ErrNilEntity
		}
	}
	if len(conflictKeys) == 0 {
		_, pk, err := r.primaryKey()
		if err != nil {
			return err
		}
		conflictKeys = []string{pk.Name}
	}
	if err := r.upsert(ctx, fields, conflictKeys, entities); err != nil {
		return wrapWriteError("upsert", r.table(), err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) upsert(ctx context.Context, fields []string, conflictKeys []string, entities []*T) error {
	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, conflictKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	query := r.db.NewInsert().Model(&entities)
	if len(fields) == 0 {
		query = query.Ignore()
	} else {
		queryArgs := make([]string, 0, len(fields))
		for _, field := range fields {
			queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", field, field))
		}
		query = query.On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", "))
	}
	_, err := query.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, conflictKeys []string, entities []*T) error {
	conflict := "CONFLICT (" + strings.Join(conflictKeys, ", ") + ")"
	query := r.db.NewInsert().Model(&entities)
	if len(fields) == 0 {
		query = query.On(conflict + " DO NOTHING")
	} else {
		queryArgs := make([]string, 0, len(fields))
		for _, field := range fields {
			queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
		}
		query = query.On(conflict + " DO UPDATE").Set(strings.Join(queryArgs, ", "))
	}
	_, err := query.Exec(ctx)
	return err
}

// upsertFallback updates by primary key and inserts when nothing was updated.
func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		res, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows > 0 {
			continue
		}
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func dataColumns(table *schema.Table) []string {
	columns := make([]string, 0, len(table.DataFields))
	for _, field := range table.DataFields {
		columns = append(columns, string(field.SQLName))
	}
	return columns
}

func wrapWriteError(op string, table *schema.Table, err error) error {
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("%s %s: %w: %v", op, table.TypeName, ErrDuplicateKey, err)
	}
	return fmt.Errorf("%s %s: %w", op, table.TypeName, err)
}
