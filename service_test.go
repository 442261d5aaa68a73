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
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/studentstore/database"
	"github.com/tomoncle/studentstore/model"
	"github.com/tomoncle/studentstore/types"
	"github.com/uptrace/bun"
)

func initTestDB(t *testing.T) *bun.DB {
	t.Helper()
	conn := database.DefaultConnectionConfig()
	conn.DBName = filepath.Join(t.TempDir(), "students")
	conn.MaxOpenConns = 1
	conn.MaxIdleConns = 1
	conn.HealthCheckInterval = 0

	db, err := database.InitDB(&database.Config{
		ConnectionConfig:  *conn,
		DataMigrateConfig: database.DataMigrateConfig{EnableMigrateOnStartup: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })
	return db
}

func newTestStore(t *testing.T) StudentStore {
	t.Helper()
	return NewStudentStoreWithDB(initTestDB(t))
}

func names(students []*model.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Name)
	}
	return out
}

func TestStudentStore_SaveAssignsIDAndRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	student := model.NewStudent("Ada", "London")
	require.True(t, student.IsNew())
	saved, err := store.Save(ctx, student)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.IsNew())

	found, ok, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, "Ada", found.Name)
	assert.Equal(t, "London", found.Address)
}

func TestStudentStore_CountAndFindAllMatchSaved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ids := map[int64]struct{}{}
	for _, s := range []*model.Student{
		model.NewStudent("Ada", "London"),
		model.NewStudent("Alan", "Wilmslow"),
		model.NewStudent("Grace", "Arlington"),
	} {
		saved, err := store.Save(ctx, s)
		require.NoError(t, err)
		ids[saved.ID] = struct{}{}
	}
	assert.Len(t, ids, 3)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ada", "Alan", "Grace"}, names(all))
}

func TestStudentStore_DeleteByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keep, err := store.Save(ctx, model.NewStudent("Ada", "London"))
	require.NoError(t, err)
	gone, err := store.Save(ctx, model.NewStudent("Alan", "Wilmslow"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, gone.ID))

	_, ok, err := store.FindByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.FindByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.DeleteByID(ctx, gone.ID))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStudentStore_ResaveOverwritesInPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, model.NewStudent("Ada", "London"))
	require.NoError(t, err)
	id := saved.ID

	saved.Name = "Ada Lovelace"
	saved.Address = "Marylebone"
	resaved, err := store.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, id, resaved.ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, ok, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", found.Name)
	assert.Equal(t, "Marylebone", found.Address)
}

func TestStudentStore_Empty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	found, ok, err := store.FindByID(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, found)
}

func TestStudentStore_DeleteAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"Ada", "Alan"} {
		_, err := store.Save(ctx, model.NewStudent(name, ""))
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteAll(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStudentStore_NullableFields(t *testing.T) {
	db := initTestDB(t)
	store := NewStudentStoreWithDB(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, &model.Student{})
	require.NoError(t, err)

	nulls, err := db.NewSelect().Model((*model.Student)(nil)).Where("name IS NULL AND address IS NULL").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)

	found, ok, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, found.Name)
	assert.Empty(t, found.Address)
}

func TestStudentStore_ListAndPage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, s := range []*model.Student{
		model.NewStudent("Ada", "London"),
		model.NewStudent("Alan", "Wilmslow"),
		model.NewStudent("Tim", "London"),
	} {
		_, err := store.Save(ctx, s)
		require.NoError(t, err)
	}

	londoners, err := store.List(ctx, types.NewQueryFilter("address = ?", "London"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ada", "Tim"}, names(londoners))

	page, err := store.Page(ctx, types.NewPageRequest(1, 2, nil, "name DESC"))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"Tim", "Alan"}, names(page.Items))

	var byBuilder []*model.Student
	require.NoError(t, store.SelectBuilder().Where("name = ?", "Alan").Scan(ctx, &byBuilder))
	assert.Equal(t, []string{"Alan"}, names(byBuilder))
}

func TestStudentStore_Transactions(t *testing.T) {
	db := initTestDB(t)
	store := NewStudentStoreWithDB(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context, tx StudentStore) error {
		if _, err := tx.Save(ctx, model.NewStudent("Discarded", "")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = store.WithTx(tx).Save(ctx, model.NewStudent("Committed", ""))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Committed"}, names(all))
}

func TestNewStudentStore_UsesGlobalDatabase(t *testing.T) {
	initTestDB(t)
	store := NewStudentStore()
	ctx := context.Background()

	saved, err := store.Save(ctx, model.NewStudent("Global", "Somewhere"))
	require.NoError(t, err)

	found, ok, err := NewStudentStoreWithDB(database.GetDB()).FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Global", found.Name)
}
