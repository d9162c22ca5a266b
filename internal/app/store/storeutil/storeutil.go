// internal/app/store/storeutil/storeutil.go
package storeutil

import "go.mongodb.org/mongo-driver/mongo/options"

const (
	// DefaultLimit is the page size used when a caller asks for
	// pagination without saying how much.
	DefaultLimit int64 = 20

	// MaxLimit caps the page size so a single listing request cannot
	// pull an unbounded number of documents.
	MaxLimit int64 = 200
)

// Paginate returns *options.FindOptions with skip/limit for a 1-based
// page. Out-of-range inputs fall back to DefaultLimit and page 1; the
// limit is clamped to MaxLimit.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
}
