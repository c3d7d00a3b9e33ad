// auditcfg/pkg/config/values.go

package config

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Normalize returns the text strictly between the delimiting quote characters
// at position 0 and len-1 with every whitespace character removed. Inputs
// shorter than two characters are returned unchanged.
func Normalize(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	return stripSpace(raw[1 : len(raw)-1])
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// isQuoted reports whether text is a single- or double-quoted literal.
func isQuoted(text string) bool {
	if len(text) < 2 {
		return false
	}
	first, last := text[0], text[len(text)-1]
	return first == last && (first == '\'' || first == '"')
}

// ToBool maps on/true/1 to true. Every other token, including garbage, is false.
func ToBool(token string) bool {
	switch strings.ToLower(token) {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}
	return false
}

// ToEquality maps "=" to true and "!=" (or anything else) to false.
func ToEquality(token string) bool {
	return token == "="
}

const (
	microsPerSecond = int64(1000000)
	microsPerMinute = 60 * microsPerSecond
	microsPerHour   = 60 * microsPerMinute
	microsPerDay    = 24 * microsPerHour
)

// TimeOfDay is a time of day in microseconds since midnight. 24:00:00 is a
// valid value and sorts after every other time.
type TimeOfDay int64

// ParseTimeOfDay accepts HH:MM, HH:MM:SS and HH:MM:SS.ffffff.
func ParseTimeOfDay(text string) (TimeOfDay, error) {
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid input syntax for type time: %q", text)
	}

	hour, err := parseClockPart(parts[0], 24)
	if err != nil {
		return 0, fmt.Errorf("invalid input syntax for type time: %q", text)
	}
	minute, err := parseClockPart(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid input syntax for type time: %q", text)
	}

	var second, fraction int64
	if len(parts) == 3 {
		secText, fracText, hasFrac := strings.Cut(parts[2], ".")
		second, err = parseClockPart(secText, 59)
		if err != nil {
			return 0, fmt.Errorf("invalid input syntax for type time: %q", text)
		}
		if hasFrac {
			fraction, err = parseFraction(fracText)
			if err != nil {
				return 0, fmt.Errorf("invalid input syntax for type time: %q", text)
			}
		}
	}

	total := hour*microsPerHour + minute*microsPerMinute + second*microsPerSecond + fraction
	if total > microsPerDay {
		return 0, fmt.Errorf("date/time field value out of range: %q", text)
	}
	return TimeOfDay(total), nil
}

func parseClockPart(s string, max int64) (int64, error) {
	if s == "" || len(s) > 2 {
		return 0, fmt.Errorf("bad clock field %q", s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("clock field %q out of range", s)
	}
	return v, nil
}

func parseFraction(s string) (int64, error) {
	if s == "" || len(s) > 6 {
		return 0, fmt.Errorf("bad fraction %q", s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("bad fraction %q", s)
	}
	for i := len(s); i < 6; i++ {
		v *= 10
	}
	return v, nil
}

func (t TimeOfDay) String() string {
	v := int64(t)
	hour := v / microsPerHour
	v %= microsPerHour
	minute := v / microsPerMinute
	v %= microsPerMinute
	second := v / microsPerSecond
	fraction := v % microsPerSecond

	s := fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
	if fraction != 0 {
		s += strings.TrimRight(fmt.Sprintf(".%06d", fraction), "0")
	}
	return s
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeRange is a window of a single day; a compiled range always has Begin < End.
type TimeRange struct {
	Begin TimeOfDay `json:"begin" yaml:"begin"`
	End   TimeOfDay `json:"end" yaml:"end"`
}

