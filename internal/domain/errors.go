package domain

import "errors"

// ErrDataNotFound indicates a required reference-data row (revenue year,
// geography, spending function) has no match in the loaded tables. Engines
// fail the whole computation with this error rather than zero-filling, since
// the denominators they need are undefined without it.
var ErrDataNotFound = errors.New("reference data not found")
