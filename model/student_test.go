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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/studentstore/database"
)

func TestStudent_RegisteredForMigrations(t *testing.T) {
	var found bool
	for _, m := range database.GetRegisteredModels() {
		if _, ok := m.Instance().(*Student); ok {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStudent_IsNewAndString(t *testing.T) {
	s := NewStudent("Ada", "London")
	assert.True(t, s.IsNew())
	s.ID = 7
	assert.False(t, s.IsNew())
	assert.Equal(t, `Student{id=7, name="Ada", address="London"}`, s.String())
}
