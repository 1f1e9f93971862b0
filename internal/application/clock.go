package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now() in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Since reports the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
