//go:build cgo

package db

import _ "github.com/mattn/go-sqlite3"

// DriverName is the database/sql driver used for sqlite. The go-sqlite3
// driver requires cgo.
const DriverName = "sqlite3"
