// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrNotFound is returned when a requested record (order, product,
// coupon, stored refresh token) does not exist. Handlers translate
// this into an HTTP 404, or 401 for the token store where a miss
// means the session was revoked.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by user creation when the email column's
// unique constraint is violated. Handlers translate this into a 400
// "User already exists" response.
var ErrEmailExists = errors.New("email already exists")
