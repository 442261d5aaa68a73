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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Defaults(t *testing.T) {
	p := NewDefaultPageRequest(0, 0)
	assert.Equal(t, DefaultPage, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())
	assert.Nil(t, p.GetFilter())
	assert.Empty(t, p.GetOrders())
}

func TestPageRequest_ClampsSizeAndComputesOffset(t *testing.T) {
	p := NewPageRequest(3, MaxPageSize+1, NewQueryFilter("name = ?", "Ada"), "id DESC")
	assert.Equal(t, MaxPageSize, p.GetPageSize())
	assert.Equal(t, 2*MaxPageSize, p.GetOffset())
	assert.Equal(t, "name = ?", p.GetFilter().Schema)
	assert.Equal(t, []interface{}{"Ada"}, p.GetFilter().Args)
	assert.Equal(t, []string{"id DESC"}, p.GetOrders())
}

func TestPagination_TotalPagesAndHasNext(t *testing.T) {
	p := NewPagination[int](1, 10)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 0, p.TotalPages())
	assert.False(t, p.HasNext())

	p.Total = 25
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.HasNext())

	p.Page = 3
	assert.False(t, p.HasNext())
}
