// Package repository reads the catalog from MySQL and appends bookings to
// it.  Query errors are wrapped with the table they came from.
package repository

import "errors"

// ErrNoCatalogDB is returned by CatalogProvider when it was built without
// a database handle, for instance after the connection failed at startup.
// catalog.Load logs it and serves an empty collection.
var ErrNoCatalogDB = errors.New("catalog database not available")
