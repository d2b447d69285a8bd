package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNegativeDuration = errors.New("duration fields must not be negative")

// Duration is an hours/minutes/seconds triple as shown on a clock face.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func NewDuration(hours, minutes, seconds int) (Duration, error) {
	if hours < 0 || minutes < 0 || seconds < 0 {
		return Duration{}, fmt.Errorf("%w: %d:%d:%d", ErrNegativeDuration, hours, minutes, seconds)
	}
	return Duration{Hours: hours, Minutes: minutes, Seconds: seconds}, nil
}

// MustDuration is NewDuration for literals; it panics on negative fields.
func MustDuration(hours, minutes, seconds int) Duration {
	d, err := NewDuration(hours, minutes, seconds)
	if err != nil {
		panic(err)
	}
	return d
}

// DurationFromMilliseconds rounds ms up to the next whole second, so a clock
// with 0.4s left still shows 00:01.
func DurationFromMilliseconds(ms int64) Duration {
	if ms < 0 {
		ms = 0
	}
	secs := (ms + 999) / 1000
	return Duration{
		Hours:   int(secs / 3600),
		Minutes: int((secs % 3600) / 60),
		Seconds: int(secs % 60),
	}
}

// DurationFromStd converts a time.Duration with the same rounding as DurationFromMilliseconds.
func DurationFromStd(d time.Duration) Duration {
	return DurationFromMilliseconds(d.Milliseconds() + boolInt64(d%time.Millisecond > 0))
}

func (d Duration) Milliseconds() int64 {
	return ((int64(d.Hours)*60+int64(d.Minutes))*60 + int64(d.Seconds)) * 1000
}

func (d Duration) Std() time.Duration {
	return time.Duration(d.Milliseconds()) * time.Millisecond
}

func (d Duration) IsZero() bool {
	return d.Hours == 0 && d.Minutes == 0 && d.Seconds == 0
}

func (d Duration) validate() error {
	if d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0 {
		return fmt.Errorf("%w: %d:%d:%d", ErrNegativeDuration, d.Hours, d.Minutes, d.Seconds)
	}
	return nil
}

// FieldsString joins the selected fields with ':' and zero-pads minutes/seconds on request.
func (d Duration) FieldsString(incHours, incMinutes, incSeconds, padMinutes, padSeconds bool) string {
	parts := make([]string, 0, 3)
	if incHours {
		parts = append(parts, strconv.Itoa(d.Hours))
	}
	if incMinutes {
		parts = append(parts, pad(d.Minutes, padMinutes))
	}
	if incSeconds {
		parts = append(parts, pad(d.Seconds, padSeconds))
	}
	return strings.Join(parts, ":")
}

// TimerString is the running-clock form: "1:05:09", "5:09", "09".
func (d Duration) TimerString() string {
	var b strings.Builder
	if d.Hours != 0 {
		b.WriteString(strconv.Itoa(d.Hours))
		b.WriteByte(':')
	}
	if d.Hours != 0 || d.Minutes != 0 || d.Seconds != 0 {
		b.WriteString(pad(d.Minutes, d.Hours != 0))
		b.WriteByte(':')
	}
	b.WriteString(pad(d.Seconds, true))
	return b.String()
}

// SimpleString pads every field to two digits and omits zero hours.
func (d Duration) SimpleString() string {
	s := pad(d.Minutes, true) + ":" + pad(d.Seconds, true)
	if d.Hours != 0 {
		return pad(d.Hours, true) + ":" + s
	}
	return s
}

func (d Duration) CompleteString() string {
	return pad(d.Hours, true) + ":" + pad(d.Minutes, true) + ":" + pad(d.Seconds, true)
}

func (d Duration) MinSecString() string {
	return pad(d.Minutes, true) + ":" + pad(d.Seconds, true)
}

func (d Duration) String() string { return d.TimerString() }

// JoinClean renders a base/extra pair compactly ("3|2", "1:30:00|30") with
// matching field sets so both halves line up.
func JoinClean(base, extra Duration, joiner string) string {
	hour1 := base.Hours != 0
	hour2 := extra.Hours != 0
	min1 := base.Minutes != 0
	min2 := extra.Minutes != 0
	sec1 := (base.Minutes == 0 && base.Hours == 0) || base.Seconds != 0
	sec2 := (extra.Minutes == 0 && extra.Hours == 0) || extra.Seconds != 0

	hour1 = hour1 || hour2
	min1 = min1 || min2
	sec1 = sec1 || hour1
	sec2 = sec2 || min2

	padMin := hour1
	padSec := sec1
	return base.FieldsString(hour1, min1, sec1, padMin, padSec) +
		joiner +
		extra.FieldsString(hour2, min2, sec2, padMin, padSec)
}

func pad(n int, two bool) string {
	s := strconv.Itoa(n)
	if two && len(s) < 2 {
		return "0" + s
	}
	return s
}

func boolInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
