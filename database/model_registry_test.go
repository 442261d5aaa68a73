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

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type courseRow struct {
	bun.BaseModel `bun:"table:courses"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Title string `bun:"title,nullzero"`
}

type enrollmentRow struct {
	bun.BaseModel `bun:"table:enrollments"`

	ID       int64 `bun:"id,pk,autoincrement"`
	CourseID int64 `bun:"course_id"`
}

func TestModelRegistry_OrdersByPriorityAndDedupes(t *testing.T) {
	registry := NewModelRegistry()
	registry.Register(NewModelAdapter((*enrollmentRow)(nil), 2))
	registry.Register(NewModelAdapter((*courseRow)(nil), 1))
	registry.Register(NewModelAdapter((*courseRow)(nil), 5))

	models := registry.Models()
	require.Len(t, models, 2)
	assert.IsType(t, (*courseRow)(nil), models[0].Instance())
	assert.Equal(t, 1, models[0].Priority())
	assert.IsType(t, (*enrollmentRow)(nil), models[1].Instance())

	instances := modelInstances(models)
	assert.Len(t, instances, 2)
}

func TestModelRegistry_StableForEqualPriority(t *testing.T) {
	registry := NewModelRegistry()
	registry.Register(NewModelAdapter((*enrollmentRow)(nil), 1))
	registry.Register(NewModelAdapter((*courseRow)(nil), 1))

	models := registry.Models()
	assert.IsType(t, (*enrollmentRow)(nil), models[0].Instance())
	assert.IsType(t, (*courseRow)(nil), models[1].Instance())
}
