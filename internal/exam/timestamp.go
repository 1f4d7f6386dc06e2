package exam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// legacyLayouts are display formats older ledgers stored in "date"
// (browser toLocaleString output). They only fill Time; Display keeps the
// string as written.
var legacyLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"2/1/2006, 15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a result's creation time. New results carry Time and encode
// as RFC 3339. Values read from a slot that are not RFC 3339 keep their
// original text in Display and encode back unchanged.
type Timestamp struct {
	Time    time.Time
	Display string
}

func At(t time.Time) Timestamp { return Timestamp{Time: t} }

func (ts Timestamp) String() string {
	if ts.Display != "" {
		return ts.Display
	}
	return ts.Time.Format(time.RFC3339)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Display != "" {
		return json.Marshal(ts.Display)
	}
	return ts.Time.MarshalJSON()
}

// UnmarshalJSON accepts RFC 3339 strings, any other string (kept for
// display), unix milliseconds and null.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	*ts = Timestamp{}
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			ts.Time = t
			return nil
		}
		ts.Display = s
		for _, layout := range legacyLayouts {
			if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
				ts.Time = t
				break
			}
		}
		return nil
	default:
		var ms float64
		if err := json.Unmarshal(b, &ms); err != nil {
			return fmt.Errorf("date: %s is neither a string nor a number", b)
		}
		ts.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
}
