package gql

import (
	"fmt"
	"strconv"
	"time"
)

// Date is the Date scalar: epoch milliseconds on the wire.
type Date struct {
	time.Time
}

func (Date) ImplementsGraphQLType(name string) bool { return name == "Date" }

func (d *Date) UnmarshalGraphQL(input interface{}) error {
	var ms int64
	switch v := input.(type) {
	case int32:
		ms = int64(v)
	case int64:
		ms = v
	case int:
		ms = int64(v)
	case float64:
		ms = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid Date %q", v)
		}
		ms = n
	default:
		return fmt.Errorf("wrong type for Date: %T", input)
	}
	d.Time = time.UnixMilli(ms).UTC()
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, d.UnixMilli(), 10), nil
}

func dateOf(t time.Time) Date { return Date{Time: t} }

func optDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := dateOf(*t)
	return &d
}
