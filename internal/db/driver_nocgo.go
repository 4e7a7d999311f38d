//go:build !cgo

package db

import _ "modernc.org/sqlite"

// DriverName is the database/sql driver used for sqlite. Without cgo the
// pure Go modernc driver is used instead of go-sqlite3.
const DriverName = "sqlite"
