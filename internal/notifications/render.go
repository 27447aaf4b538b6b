package notifications

import (
	"fmt"
	"html"
	"strings"

	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// Delivery is one message to deliver.
type Delivery struct {
	UserID    int64
	Kind      Kind
	Context   profile.Context
	Day       schedule.Day
	Date      string
	Intervals []schedule.Interval
	Note      string // shown when the group could not be located
	ImageURL  string
	SyncTime  string
}

// Render builds the Telegram HTML text for d.
func Render(d Delivery) string {
	var b strings.Builder

	b.WriteString(header(d.Kind, d.Day, d.Date))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(d.Context.DisplayLabel()))
	fmt.Fprintf(&b, "🔌 Group <b>%s</b>\n\n", html.EscapeString(d.Context.GroupCode.Dotted()))

	if len(d.Intervals) == 0 {
		b.WriteString("✅ No outages planned.")
	} else {
		b.WriteString("Planned outages:")
		for _, iv := range schedule.Sorted(d.Intervals) {
			fmt.Fprintf(&b, "\n• %s - %s", iv.Start, iv.End)
		}
	}

	if d.Note != "" {
		fmt.Fprintf(&b, "\n\nℹ️ %s", html.EscapeString(d.Note))
	}
	if d.ImageURL != "" {
		fmt.Fprintf(&b, "\n\n<a href=\"%s\">Schedule image</a>", html.EscapeString(d.ImageURL))
	}
	if d.SyncTime != "" {
		fmt.Fprintf(&b, "\n🕐 Updated: %s", html.EscapeString(d.SyncTime))
	}
	return b.String()
}

func header(kind Kind, day schedule.Day, date string) string {
	switch kind {
	case KindChanged:
		return fmt.Sprintf("🔄 <b>Schedule changed for %s</b>", date)
	case KindDigest:
		if day == schedule.Tomorrow {
			return fmt.Sprintf("🌙 <b>Tomorrow's outages, %s</b>", date)
		}
		return fmt.Sprintf("☀️ <b>Today's outages, %s</b>", date)
	case KindOnDemand:
		return fmt.Sprintf("⚡ <b>Outage schedule for %s</b>", date)
	default:
		return fmt.Sprintf("📅 <b>Schedule published for %s</b>", date)
	}
}

const (
	noContextText  = "❌ Your group is not set yet. Pick your address or set a group first."
	noScheduleText = "⚠️ No outage schedule is available right now."
)
