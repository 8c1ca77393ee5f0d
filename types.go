package toolrank

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// PriceTier is the pricing model of a directory entry.
type PriceTier string

const (
	// PriceAll matches every tier. It is only meaningful in filters and preferences.
	PriceAll PriceTier = "all"
	// PriceFree is a free tool.
	PriceFree PriceTier = "free"
	// PricePaid is a paid tool.
	PricePaid PriceTier = "paid"
	// PriceFreemium is a tool with a free tier and paid upgrades.
	PriceFreemium PriceTier = "freemium"
)

// IsAll reports whether the tier places no constraint. The empty tier counts as all.
func (p PriceTier) IsAll() bool {
	return p == "" || p == PriceAll
}

// ContentType is the kind of directory entry a result describes.
type ContentType string

const (
	ContentTool     ContentType = "tool"
	ContentArticle  ContentType = "article"
	ContentCategory ContentType = "category"
	ContentUser     ContentType = "user"
)

// DateRange limits results by how recently they were updated.
type DateRange string

const (
	// DateAll places no constraint on the update time.
	DateAll DateRange = "all"
	// DateWeek keeps results updated within the last 7 days.
	DateWeek DateRange = "week"
	// DateMonth keeps results updated within the last 30 days.
	DateMonth DateRange = "month"
	// DateYear keeps results updated within the last 365 days.
	DateYear DateRange = "year"
)

// ParseDateRange parses a date range name. The empty string parses as DateAll.
func ParseDateRange(s string) (DateRange, error) {
	switch DateRange(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateAll:
		return DateAll, nil
	case DateWeek:
		return DateWeek, nil
	case DateMonth:
		return DateMonth, nil
	case DateYear:
		return DateYear, nil
	default:
		return "", errors.WithSecondaryError(ErrInvalidOption, errors.Newf("unknown date range %q", s))
	}
}

// ParsePriceTier parses a price tier name. The empty string parses as PriceAll.
func ParsePriceTier(s string) (PriceTier, error) {
	switch PriceTier(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriceAll:
		return PriceAll, nil
	case PriceFree:
		return PriceFree, nil
	case PricePaid:
		return PricePaid, nil
	case PriceFreemium:
		return PriceFreemium, nil
	default:
		return "", errors.WithSecondaryError(ErrInvalidOption, errors.Newf("unknown price tier %q", s))
	}
}

// SortKey names an entry in the sort strategy registry.
type SortKey string

const (
	SortRelevance  SortKey = "relevance"
	SortRating     SortKey = "rating"
	SortPopularity SortKey = "popularity"
	SortRecent     SortKey = "recent"
	SortViews      SortKey = "views"
	SortLikes      SortKey = "likes"
)

// ErrorCode represents specific error codes for ranking operations.
type ErrorCode int

const (
	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption ErrorCode = iota + 1000

	// ErrCodeInvalidSortKey is returned when a sort key is not in the registry.
	ErrCodeInvalidSortKey

	// ErrCodeTimeout is returned when a ranking operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a ranking operation is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when a backing service is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeMalformedRecord is returned when a stored record cannot be decoded.
	ErrCodeMalformedRecord
)

// String returns the human-readable string representation of the error code.
// This implements the fmt.Stringer interface.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidSortKey:
		return "invalid sort key"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeMalformedRecord:
		return "malformed record"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors that can be returned by ranking operations.
var (
	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "toolrank: invalid option")

	// ErrInvalidSortKey is returned when a sort key is not in the registry.
	ErrInvalidSortKey = newErrorWithCode(ErrCodeInvalidSortKey, "toolrank: invalid sort key")

	// ErrTimeout is returned when a ranking operation times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "toolrank: operation timed out")

	// ErrCanceled is returned when a ranking operation is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "toolrank: operation canceled")

	// ErrBackendUnavailable is returned when a backing service is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "toolrank: backend unavailable")

	// ErrMalformedRecord is returned when a stored record cannot be decoded.
	ErrMalformedRecord = newErrorWithCode(ErrCodeMalformedRecord, "toolrank: malformed record")
)
