// Package repository holds the MySQL and NATS backed stores.
package repository

import "errors"

// ErrNotFound is returned for missing users and journey cards.
var ErrNotFound = errors.New("record not found")
