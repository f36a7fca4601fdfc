// Package codec holds the wire representations of timestamp fields.
//
// Record timestamps are plain time.Time values in memory; a TimeCodec decides
// how they appear on the wire. The default is RFC 3339 text in UTC.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
)

// TimeCodec converts between time.Time and a JSON scalar. EncodeTime returns
// either a string or a gojson.Number; DecodeTime receives the scalar as it
// appeared in the document (string, gojson.Number or bool).
type TimeCodec interface {
	EncodeTime(t time.Time) (any, error)
	DecodeTime(v any) (time.Time, error)
	Name() string
}

// ErrTimeType reports a wire value of the wrong JSON type for the codec.
var ErrTimeType = errors.New("unexpected JSON type for timestamp")

// ErrTimeRange reports a time that cannot be written by the codec.
var ErrTimeRange = errors.New("timestamp out of range")

// RFC3339 returns the default codec: RFC 3339 text with optional fractional
// seconds on input, UTC RFC3339Nano on output.
func RFC3339() TimeCodec { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) Name() string { return "rfc3339" }

// checkYear rejects years that do not fit the four-digit year of RFC 3339.
func checkYear(t time.Time) error {
	if y := t.Year(); y < 0 || y > 9999 {
		return fmt.Errorf("%w: year %d", ErrTimeRange, y)
	}
	return nil
}

func (rfc3339Codec) EncodeTime(t time.Time) (any, error) {
	u := t.UTC()
	if err := checkYear(u); err != nil {
		return nil, err
	}
	// RFC3339Nano trims trailing zeros in the fraction
	return u.Format(time.RFC3339Nano), nil
}

func (rfc3339Codec) DecodeTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, ErrTimeType
	}
	return parseRFC3339(s)
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// Layout returns a codec that formats and parses with a Go reference layout.
// Output is converted to loc first (UTC when loc is nil); layouts without a
// zone parse in loc as well.
func Layout(layout string, loc *time.Location) TimeCodec {
	if loc == nil {
		loc = time.UTC
	}
	return layoutCodec{layout: layout, loc: loc}
}

type layoutCodec struct {
	layout string
	loc    *time.Location
}

func (c layoutCodec) Name() string { return "layout:" + c.layout }

func (c layoutCodec) EncodeTime(t time.Time) (any, error) {
	t = t.In(c.loc)
	// time.Parse reads at most four year digits
	if err := checkYear(t); err != nil {
		return nil, err
	}
	return t.Format(c.layout), nil
}

func (c layoutCodec) DecodeTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, ErrTimeType
	}
	return time.ParseInLocation(c.layout, s, c.loc)
}

// EpochMillis returns a codec that writes integer milliseconds since the Unix
// epoch, the numeric timestamp form used by some producers of this format.
func EpochMillis() TimeCodec { return epochMillisCodec{} }

type epochMillisCodec struct{}

func (epochMillisCodec) Name() string { return "epoch-millis" }

func (epochMillisCodec) EncodeTime(t time.Time) (any, error) {
	if sec := t.Unix(); sec >= math.MaxInt64/1000 || sec < math.MinInt64/1000 {
		return nil, fmt.Errorf("%w: %s", ErrTimeRange, t.UTC().Format(time.RFC3339))
	}
	return gojson.Number(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

func (epochMillisCodec) DecodeTime(v any) (time.Time, error) {
	n, ok := v.(gojson.Number)
	if !ok {
		return time.Time{}, ErrTimeType
	}
	ms, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(n), 64)
		if ferr != nil || math.Trunc(f) != f || f >= math.MaxInt64 || f < math.MinInt64 {
			return time.Time{}, fmt.Errorf("%w: %s", ErrTimeRange, n)
		}
		ms = int64(f)
	}
	return time.UnixMilli(ms).UTC(), nil
}
