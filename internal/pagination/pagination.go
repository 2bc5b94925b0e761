// Package pagination provides the shared page-slicing used by the
// list-producing engines.
package pagination

// Page returns the 1-indexed page window [(page-1)*size, page*size) of items
// together with the original total length. A window beyond the sequence is an
// empty slice, never an error; page and size are caller-validated positive.
func Page[T any](items []T, page, size int) ([]T, int) {
	total := len(items)
	start := (page - 1) * size
	if start < 0 || start >= total {
		return []T{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], total
}
