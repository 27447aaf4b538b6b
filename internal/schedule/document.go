package schedule

import "time"

// DateLayout is the utility's date label format.
const DateLayout = "02.01.2006"

// Day selects which published document a value refers to.
type Day int

const (
	Today Day = iota
	Tomorrow
)

func (d Day) String() string {
	if d == Tomorrow {
		return "tomorrow"
	}
	return "today"
}

// Document is one published schedule as fetched from the source. It is
// produced fresh on each fetch and never mutated afterwards.
type Document struct {
	Day       Day    `json:"day"`
	Date      string `json:"date"`
	RawMarkup string `json:"raw_markup"`
	ImageURL  string `json:"image_url,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// DateLabel formats the calendar date that day refers to, seen from now.
func DateLabel(now time.Time, day Day) string {
	if day == Tomorrow {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format(DateLayout)
}
