package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

//ErrMalformedTimestamp marks ground-truth timing that could not be parsed
var ErrMalformedTimestamp = errors.New("malformed timestamp")

//TimestampError carries the offending value; it matches ErrMalformedTimestamp with errors.Is
type TimestampError struct {
	Value string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp '%s': use seconds (37), MM:SS (1:40) or HH:MM:SS (1:23:45)", e.Value)
}

func (e *TimestampError) Unwrap() error {
	return ErrMalformedTimestamp
}

//ParseTimestamp converts "37", "1:40" or "1:23:45" into whole seconds
func ParseTimestamp(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, &TimestampError{Value: s}
	}

	total := 0
	for _, p := range parts {
		if !allDigits(p) {
			return 0, &TimestampError{Value: s}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, &TimestampError{Value: s}
		}
		total = total*60 + n
	}

	return total, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
