// Package history keeps the local index of challans that were created through this service. The
// ERP is the source of truth, the index only serves the history page and its counters.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"challan-backend/internal/components/chrono"
)

const DefaultPageSize = 20

// Record is one created challan. Scraped fields are best-effort and may be empty.
type Record struct {
	ID            string    `json:"id" bson:"-"`
	ChallanNo     string    `json:"challan_no" bson:"challan_no"`
	SystemID      string    `json:"system_id" bson:"system_id"`
	CompanyID     string    `json:"company_id" bson:"company_id"`
	CompanyName   string    `json:"company_name" bson:"company_name"`
	BookingNo     string    `json:"booking_no" bson:"booking_no"`
	LineNo        string    `json:"line_no" bson:"line_no"`
	Color         string    `json:"color" bson:"color"`
	Date          string    `json:"date" bson:"date"`
	TotalQuantity int       `json:"total_quantity" bson:"total_quantity"`
	Report1URL    string    `json:"report1_url" bson:"report1_url"`
	Report2URL    string    `json:"report2_url" bson:"report2_url"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Filter narrows Find, every non-empty field is a case-insensitive substring match.
type Filter struct {
	ChallanNo string
	LineNo    string
	Date      string
	BookingNo string
}

func (f Filter) normalized() Filter {
	return Filter{
		ChallanNo: strings.TrimSpace(f.ChallanNo),
		LineNo:    strings.TrimSpace(f.LineNo),
		Date:      strings.TrimSpace(f.Date),
		BookingNo: strings.TrimSpace(f.BookingNo),
	}
}

// Store is the persistence boundary of the history index. Records are appended on create and
// removed by challan number on delete, they are never updated.
//
// note: fault injection point
type Store interface {
	Insert(ctx context.Context, record Record) error
	DeleteByChallanNo(ctx context.Context, challanNo string) error
	// Find returns one page (1-based) of matching records, newest first, and the number of
	// matching records over all pages.
	Find(ctx context.Context, filter Filter, page, limit int) ([]Record, int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Close(ctx context.Context) error
}

func pageBounds(page, limit int) (skip int, size int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	return (page - 1) * limit, limit
}

type Stats struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Total int64 `json:"total"`
}

// ComputeStats counts records created today, in the 7 and 30 days before today and overall.
func ComputeStats(ctx context.Context, store Store, now time.Time) (Stats, error) {
	today := chrono.StartOfDay(now)
	since := []time.Time{
		today,
		today.AddDate(0, 0, -7),
		today.AddDate(0, 0, -30),
		{},
	}

	counts := make([]int64, len(since))
	for i, t := range since {
		n, err := store.CountSince(ctx, t)
		if err != nil {
			return Stats{}, err
		}
		counts[i] = n
	}
	return Stats{
		Today: counts[0],
		Week:  counts[1],
		Month: counts[2],
		Total: counts[3],
	}, nil
}

type Config struct {
	// Driver is one of "mongo", "sqlite" or "libsql".
	Driver   string `json:"driver"`
	URI      string `json:"uri"`
	Database string `json:"database"`
	PageSize int    `json:"page_size"`
}

// Open connects the store selected by config.Driver.
func Open(ctx context.Context, config Config) (Store, error) {
	switch config.Driver {
	case "", "mongo":
		return OpenMongo(ctx, config.URI, config.Database)
	case "sqlite", "libsql":
		return OpenSQL(ctx, config.Driver, config.URI)
	default:
		return nil, fmt.Errorf("unknown history driver %q", config.Driver)
	}
}
