// Package repository holds the MySQL-backed stores.  The sentinel errors
// below let handlers choose a status code without knowing SQL.
package repository

import "errors"

var (
	// ErrForbidden: the caller does not own the resource.  Maps to 403.
	ErrForbidden = errors.New("forbidden")

	// ErrProductNotFound: no product with the given id.  Maps to 404.
	ErrProductNotFound = errors.New("product not found")

	ErrEmailExists = errors.New("email already exists")
)
