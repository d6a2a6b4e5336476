package requisition

import (
	"strings"
	"time"
)

// DisplayDateLayout is the DD-MM-YYYY form used in list views.
const DisplayDateLayout = "02-01-2006"

var inputDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	DisplayDateLayout,
}

// FormatDisplayDate renders a stored date as DD-MM-YYYY.
// The stored value is not touched; this is for presentation only.
// POST: "" for empty input; input returned unchanged when it cannot be parsed
func FormatDisplayDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format(DisplayDateLayout)
		}
	}
	return date
}
