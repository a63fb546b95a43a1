package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"subtrack/internal/core"
)

// ExtractPayments derives one payment per active subscription with a usable
// next payment date. Subscriptions whose date does not normalize are left out.
func ExtractPayments(subs []core.Subscription) []core.Payment {
	payments := make([]core.Payment, 0, len(subs))
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		key, ok := s.NextPaymentDate.Key()
		if !ok {
			continue
		}
		color := s.Color
		if color == "" {
			color = core.DefaultColor
		}
		icon := s.Icon
		if icon == "" {
			icon = core.DefaultIcon
		}
		payments = append(payments, core.Payment{
			ID:         s.ID,
			Name:       s.Name,
			Amount:     s.Amount,
			KRWAmount:  s.NormalizedKRW(),
			DateString: key,
			Color:      color,
			Icon:       icon,
		})
	}
	return payments
}

// Upcoming returns the payments due between today and today+days inclusive,
// ordered by date and then name.
func Upcoming(payments []core.Payment, today time.Time, days int) []core.Payment {
	if days < 0 {
		days = 0
	}
	from := core.ToKey(today)
	to := core.ToKey(core.CivilDay(today).AddDate(0, 0, days))

	out := make([]core.Payment, 0)
	for _, p := range payments {
		// Canonical keys compare chronologically as strings.
		if p.DateString >= from && p.DateString <= to {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateString != out[j].DateString {
			return out[i].DateString < out[j].DateString
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DaysUntil returns the number of calendar days from today to the payment.
func DaysUntil(p core.Payment, today time.Time) int {
	due, ok := core.FromKey(p.DateString, time.UTC)
	if !ok {
		return 0
	}
	return int(due.Sub(core.CivilDay(today)).Hours() / 24)
}

// ReminderLabel renders a days-until value for notifications.
func ReminderLabel(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// DayDetails holds the payments of a single date.
type DayDetails struct {
	Key      string         `json:"key"`
	Payments []core.Payment `json:"payments"`
	Total    float64        `json:"total"`
}

// Day returns the payments due on key. Keys that are not canonical dates
// yield core.ErrInvalidDate.
func Day(payments []core.Payment, key string) (DayDetails, error) {
	key = strings.TrimSpace(key)
	if _, ok := core.FromKey(key, time.UTC); !ok {
		return DayDetails{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, key)
	}
	details := DayDetails{Key: key, Payments: []core.Payment{}}
	for _, p := range payments {
		if p.DateString == key {
			details.Payments = append(details.Payments, p)
			details.Total += p.KRWAmount
		}
	}
	return details, nil
}
