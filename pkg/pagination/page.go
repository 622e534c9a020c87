// Package pagination covers the two listing styles the storefront uses:
// numbered pages for the catalog and admin tables, opaque cursors for a
// customer's order history.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// LimitWithBuffer asks for one extra row so callers can tell whether
// another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

func NewPage(number, limit int) Page {
	return Page{Number: max(number, 1), Limit: NormalizeLimit(limit)}
}

func (p Page) Offset() int {
	return max(p.Number-1, 0) * NormalizeLimit(p.Limit)
}

// TotalPages is ceil(total / limit).
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	size := int64(NormalizeLimit(p.Limit))
	return int((total + size - 1) / size)
}
