package chrono

import (
	"time"
)

var dhaka *time.Location

func init() {
	var err error
	dhaka, err = time.LoadLocation("Asia/Dhaka")
	if err != nil {
		// Asia/Dhaka has been a fixed UTC+6 offset without DST since 2009
		dhaka = time.FixedZone("Asia/Dhaka", 6*60*60)
	}
}

// Dhaka returns a [*time.Location] for Asia/Dhaka, the business timezone of the ERP.
func Dhaka() *time.Location {
	return dhaka
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in the business timezone.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(dhaka)
}

// FixedTime always returns the same instant, it is meant for tests.
type FixedTime struct {
	At time.Time
}

func (f FixedTime) Now() time.Time {
	return f.At.In(dhaka)
}

// IssueDate applies the ERP's work week rule: Friday is not a business day so anything issued on
// a Friday is dated the previous calendar day.
func IssueDate(now time.Time) time.Time {
	now = now.In(dhaka)
	if now.Weekday() == time.Friday {
		return now.AddDate(0, 0, -1)
	}
	return now
}

// StartOfDay returns midnight of the day t falls on, in the business timezone.
func StartOfDay(t time.Time) time.Time {
	t = t.In(dhaka)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, dhaka)
}

// FormatERPDate formats a date the way the ERP's date pickers do, e.g. "01-May-2024".
func FormatERPDate(t time.Time) string {
	return t.Format("02-Jan-2006")
}

// FormatReportingHour formats the hour:minute the ERP stores as reporting hour.
func FormatReportingHour(t time.Time) string {
	return t.Format("15:04")
}
