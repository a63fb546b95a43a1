package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/sanitize"
)

// Column layout of the subscriptions sheet, A through P.
const (
	colID = iota
	colName
	colDescription
	colAmount
	colCurrency
	colKRWAmount
	colBillingCycle
	colStatus
	colCategory
	colNextPayment
	colYearlyDiscount
	colColor
	colIcon
	colDisplayOrder
	colCreatedAt
	colUpdatedAt
	columnCount
)

const lastColumn = "P"

var header = []any{
	"ID", "Name", "Description", "Amount", "Currency", "KRW Amount",
	"Billing Cycle", "Status", "Category", "Next Payment", "Yearly Discount",
	"Color", "Icon", "Order", "Created At", "Updated At",
}

// encodeRow renders s as one sheet row. Free text cells are guarded against
// formula injection because rows are written with USER_ENTERED.
func encodeRow(s core.Subscription) []any {
	row := make([]any, columnCount)
	row[colID] = s.ID
	row[colName] = sanitize.Formula(s.Name)
	row[colDescription] = sanitize.Formula(s.Description)
	row[colAmount] = s.Amount
	row[colCurrency] = sanitize.Formula(s.Currency)
	row[colKRWAmount] = optionalFloat(s.KRWAmount)
	row[colBillingCycle] = string(s.BillingCycle)
	row[colStatus] = string(s.Status)
	row[colCategory] = string(s.Category)
	row[colNextPayment] = sanitize.Formula(string(s.NextPaymentDate))
	row[colYearlyDiscount] = optionalFloat(s.YearlyDiscount)
	row[colColor] = sanitize.Formula(s.Color)
	row[colIcon] = sanitize.Formula(s.Icon)
	row[colDisplayOrder] = s.DisplayOrder
	row[colCreatedAt] = formatTime(s.CreatedAt)
	row[colUpdatedAt] = formatTime(s.UpdatedAt)
	return row
}

// parseRow reads a row written by encodeRow. Trailing empty cells may be
// missing, as the Sheets API drops them.
func parseRow(cells []any) (core.Subscription, error) {
	cols := make([]string, columnCount)
	for i := 0; i < len(cells) && i < columnCount; i++ {
		cols[i] = cellString(cells[i])
	}

	id, err := strconv.ParseInt(cols[colID], 10, 64)
	if err != nil || id <= 0 {
		return core.Subscription{}, fmt.Errorf("invalid id %q", cols[colID])
	}
	amount, err := core.ParseAmount(cols[colAmount])
	if err != nil {
		return core.Subscription{}, fmt.Errorf("row %d: amount %q: %w", id, cols[colAmount], err)
	}

	s := core.Subscription{
		ID:              id,
		Name:            unguard(cols[colName]),
		Description:     unguard(cols[colDescription]),
		Amount:          amount,
		Currency:        cols[colCurrency],
		BillingCycle:    core.BillingCycle(cols[colBillingCycle]),
		Status:          core.Status(cols[colStatus]),
		Category:        core.Category(cols[colCategory]),
		NextPaymentDate: core.DateField(cols[colNextPayment]),
		Color:           cols[colColor],
		Icon:            cols[colIcon],
	}
	if v, err := core.ParseAmount(cols[colKRWAmount]); err == nil {
		s.KRWAmount = core.Float64(v)
	}
	if v, err := strconv.ParseFloat(cols[colYearlyDiscount], 64); err == nil {
		s.YearlyDiscount = core.Float64(v)
	}
	if v, err := strconv.Atoi(cols[colDisplayOrder]); err == nil {
		s.DisplayOrder = v
	}
	s.CreatedAt = parseTime(cols[colCreatedAt])
	s.UpdatedAt = parseTime(cols[colUpdatedAt])
	s.ApplyDefaults()
	return s, nil
}

// cellString converts a cell value as returned with UNFORMATTED_VALUE.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// unguard removes the quote added by sanitize.Formula when the API returns it.
func unguard(s string) string {
	if len(s) < 2 || s[0] != '\'' {
		return s
	}
	if t := strings.TrimSpace(s[1:]); t != "" && strings.ContainsRune("=+-@", rune(t[0])) {
		return s[1:]
	}
	return s
}

func optionalFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
