package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/core"
)

const maxBodyBytes = 1 << 20

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid subscription id %q", errBadRequest, raw)
	}
	return id, nil
}

// queryInt returns the integer parameter key, def when it is absent.
func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, nil
}

// MonthParams is a calendar month with a 0-based Month.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and the 1-based month from the query,
// defaulting to the month of now. A month outside 1..12 fails with
// core.ErrInvalidMonth.
func ParseMonthParams(q url.Values, now time.Time) (MonthParams, error) {
	year, err := queryInt(q, "year", now.Year())
	if err != nil {
		return MonthParams{}, err
	}
	month, err := queryInt(q, "month", int(now.Month()))
	if err != nil {
		return MonthParams{}, err
	}
	if month < 1 || month > 12 {
		return MonthParams{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	if year < 1 || year > 9999 {
		return MonthParams{}, fmt.Errorf("%w: year %d", errBadRequest, year)
	}
	return MonthParams{Year: year, Month: month - 1}, nil
}

// clampedQueryInt reads key and clamps it into [lo, hi].
func clampedQueryInt(q url.Values, key string, def, lo, hi int) (int, error) {
	n, err := queryInt(q, key, def)
	if err != nil {
		return 0, err
	}
	return min(max(n, lo), hi), nil
}

// decodeJSON reads a JSON body of at most maxBodyBytes into dst. Syntax and
// type errors are bad requests; errors raised by field decoders such as an
// invalid amount pass through unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		switch e := err.(type) {
		case *json.SyntaxError, *json.UnmarshalTypeError, *http.MaxBytesError:
			return fmt.Errorf("%w: %v", errBadRequest, e)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: empty or truncated body", errBadRequest)
		}
		return err
	}
	return nil
}
