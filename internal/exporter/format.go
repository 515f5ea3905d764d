package exporter

import (
	"strconv"
	"time"
)

// formatFloat formats a float64 for CSV output at full precision. Derived
// returns are small magnitudes; fixed decimal places would destroy them.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatNullableFloat formats a nullable float; nil becomes an empty field
func formatNullableFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatDate formats a date as ISO calendar date
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// formatNullableDate formats a nullable date; nil becomes an empty field
func formatNullableDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// formatBool formats a 0/1 flag for the event output contract
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
