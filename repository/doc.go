// Package repository provides a generic repository built on Bun for
// identity-keyed CRUD, counting, pagination, transactions, and upserts over
// any model with a single primary key.
package repository
