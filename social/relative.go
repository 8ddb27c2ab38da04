package social

import (
	"fmt"
	"math"
	"time"
)

type relativeUnits struct {
	justNow string
	minutes func(int) string
	hours   func(int) string
	days    func(int) string
	months  func(int) string
	years   func(int) string
}

func plural(one, many string) func(int) string {
	return func(n int) string {
		if n == 1 {
			return one
		}
		return fmt.Sprintf(many, n)
	}
}

var relativeByLocale = map[string]relativeUnits{
	"en": {
		justNow: "less than a minute ago",
		minutes: plural("1 minute ago", "%d minutes ago"),
		hours:   plural("about 1 hour ago", "about %d hours ago"),
		days:    plural("1 day ago", "%d days ago"),
		months:  plural("about 1 month ago", "%d months ago"),
		years:   plural("about 1 year ago", "about %d years ago"),
	},
	"ar": {
		justNow: "منذ أقل من دقيقة",
		minutes: plural("منذ دقيقة واحدة", "منذ %d دقيقة"),
		hours:   plural("منذ ساعة واحدة تقريباً", "منذ %d ساعات تقريباً"),
		days:    plural("منذ يوم واحد", "منذ %d أيام"),
		months:  plural("منذ شهر واحد تقريباً", "منذ %d أشهر"),
		years:   plural("منذ سنة واحدة تقريباً", "منذ %d سنوات تقريباً"),
	},
	"ku": {
		justNow: "kêmtir ji deqeyekê berê",
		minutes: plural("1 deqe berê", "%d deqe berê"),
		hours:   plural("nêzîkî 1 saet berê", "nêzîkî %d saet berê"),
		days:    plural("1 roj berê", "%d roj berê"),
		months:  plural("nêzîkî 1 meh berê", "%d meh berê"),
		years:   plural("nêzîkî 1 sal berê", "nêzîkî %d sal berê"),
	},
}

// RelativeTime renders how long ago t was, as seen at now, in locale.
// Unknown locales use English.
func RelativeTime(t, now time.Time, locale string) string {
	u, ok := relativeByLocale[locale]
	if !ok {
		u = relativeByLocale["en"]
	}

	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	minutes := int(math.Round(d.Minutes()))
	switch {
	case d < 45*time.Second:
		return u.justNow
	case minutes < 45:
		return u.minutes(max(minutes, 1))
	case minutes < 24*60:
		return u.hours(int(math.Round(d.Hours())))
	case minutes < 30*24*60:
		return u.days(int(math.Round(d.Hours() / 24)))
	case minutes < 365*24*60:
		return u.months(max(int(math.Round(d.Hours()/24/30)), 1))
	default:
		return u.years(int(d.Hours() / 24 / 365))
	}
}
