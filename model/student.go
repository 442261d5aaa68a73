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

// Package model holds the persisted entities.
package model

import (
	"fmt"

	"github.com/tomoncle/studentstore/database"
	"github.com/uptrace/bun"
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Student)(nil), 1))
}

// Student is a single student record. A zero ID marks a record that has not
// been saved yet. Empty Name and Address are stored as NULL.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,type:text,nullzero" json:"name"`
	Address string `bun:"address,type:text,nullzero" json:"address"`
}

// NewStudent returns an unsaved student.
func NewStudent(name, address string) *Student {
	return &Student{Name: name, Address: address}
}

// IsNew reports whether the student has not been assigned an id yet.
func (s *Student) IsNew() bool {
	return s.ID == 0
}

func (s *Student) String() string {
	return fmt.Sprintf("Student{id=%d, name=%q, address=%q}", s.ID, s.Name, s.Address)
}
