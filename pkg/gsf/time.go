package gsf

import (
	"time"

	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// unixToDateTime renders a Unix second count as a DateTime in UTC.
func unixToDateTime(unixSeconds int64) primitive.DateTime {
	t := time.Unix(unixSeconds, 0).UTC()
	return primitive.DateTime{
		Year:   int16(t.Year()),
		Month:  uint8(t.Month()),
		Day:    uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
	}
}
