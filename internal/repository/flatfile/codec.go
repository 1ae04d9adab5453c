package flatfile

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	fieldSep    = ","
	listSep     = "|"
	subFieldSep = ":"

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
)

// Placeholders for characters that would break the row layout. '&' is
// escaped first so an existing placeholder in user text survives the round trip.
var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		",", "&#44;",
		"|", "&#124;",
		":", "&#58;",
		"\n", "&#10;",
		"\r", "&#13;",
	)
	unescaper = strings.NewReplacer(
		"&#44;", ",",
		"&#124;", "|",
		"&#58;", ":",
		"&#10;", "\n",
		"&#13;", "\r",
		"&amp;", "&",
	)
)

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }

// --- Cell encoders ---

func encText(s string) string { return escape(s) }

func encOptText(s *string) string {
	if s == nil {
		return ""
	}
	return escape(*s)
}

func encInt(n int) string { return strconv.Itoa(n) }

func encFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func encBool(b bool) string { return strconv.FormatBool(b) }

func encDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(dateLayout)
}

func encTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(timestampLayout)
}

func encOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return encTime(*t)
}

func encList(items []string) string {
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = escape(item)
	}
	return strings.Join(escaped, listSep)
}

// --- Row decoding ---

// rowReader consumes the cells of one row in column order. The first decode
// error sticks; later reads return zero values.
type rowReader struct {
	cells []string
	pos   int
	err   error
}

func newRowReader(line string) *rowReader {
	return &rowReader{cells: strings.Split(line, fieldSep)}
}

func (r *rowReader) next() (string, string, bool) {
	if r.err != nil {
		return "", "", false
	}
	if r.pos >= len(r.cells) {
		r.err = fmt.Errorf("missing column %d", r.pos+1)
		return "", "", false
	}
	cell := r.cells[r.pos]
	r.pos++
	return cell, fmt.Sprintf("column %d", r.pos), true
}

func (r *rowReader) fail(col string, err error) {
	r.err = fmt.Errorf("%s: %w", col, err)
}

func (r *rowReader) text() string {
	cell, _, ok := r.next()
	if !ok {
		return ""
	}
	return unescape(cell)
}

// requiredText rejects empty cells, used for identifiers.
func (r *rowReader) requiredText() string {
	cell, col, ok := r.next()
	if !ok {
		return ""
	}
	if cell == "" {
		r.fail(col, fmt.Errorf("empty value"))
		return ""
	}
	return unescape(cell)
}

func (r *rowReader) optText() *string {
	cell, _, ok := r.next()
	if !ok || cell == "" {
		return nil
	}
	s := unescape(cell)
	return &s
}

func (r *rowReader) int() int {
	cell, col, ok := r.next()
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		r.fail(col, err)
	}
	return n
}

func (r *rowReader) float() float64 {
	cell, col, ok := r.next()
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		r.fail(col, err)
	}
	return f
}

func (r *rowReader) bool() bool {
	cell, col, ok := r.next()
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(cell)
	if err != nil {
		r.fail(col, err)
	}
	return b
}

func (r *rowReader) date() time.Time {
	cell, col, ok := r.next()
	if !ok || cell == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, cell, time.Local)
	if err != nil {
		r.fail(col, err)
	}
	return t
}

func (r *rowReader) timestamp() time.Time {
	cell, col, ok := r.next()
	if !ok || cell == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(timestampLayout, cell, time.Local)
	if err != nil {
		r.fail(col, err)
	}
	return t
}

func (r *rowReader) optTimestamp() *time.Time {
	cell, col, ok := r.next()
	if !ok || cell == "" {
		return nil
	}
	t, err := time.ParseInLocation(timestampLayout, cell, time.Local)
	if err != nil {
		r.fail(col, err)
		return nil
	}
	return &t
}

func (r *rowReader) list() []string {
	cell, _, ok := r.next()
	if !ok || cell == "" {
		return []string{}
	}
	parts := strings.Split(cell, listSep)
	for i := range parts {
		parts[i] = unescape(parts[i])
	}
	return parts
}

// raw returns the undecoded cell for callers with their own nested format.
func (r *rowReader) raw() (string, string) {
	cell, col, ok := r.next()
	if !ok {
		return "", ""
	}
	return cell, col
}

// done fails the row if columns are left over.
func (r *rowReader) done() error {
	if r.err == nil && r.pos != len(r.cells) {
		r.err = fmt.Errorf("expected %d columns, got %d", r.pos, len(r.cells))
	}
	return r.err
}
