package elastic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// flexTime decodes dates written by older indexers, with or without zone and fractional seconds
type flexTime time.Time

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = flexTime(time.Time{})
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// epoch millis
		var ms int64
		if errNum := json.Unmarshal(data, &ms); errNum != nil {
			return fmt.Errorf("decode date %s: %w", string(data), err)
		}
		*t = flexTime(time.UnixMilli(ms).UTC())
		return nil
	}
	if s == "" {
		*t = flexTime(time.Time{})
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unsupported date format %q", s)
}
