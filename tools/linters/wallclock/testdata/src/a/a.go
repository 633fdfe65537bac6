package a

import "time"

type clock interface {
	Now() time.Time
}

func bad() {
	_ = time.Now() // want `time.Now reads the wall clock; take the current time from a domain.Clock or a now argument`
}

func badUTC() {
	_ = time.Now().UTC() // want `time.Now reads the wall clock`
}

func since(start time.Time) time.Duration {
	return time.Since(start) // want `time.Since reads the wall clock`
}

func until(deadline time.Time) time.Duration {
	return time.Until(deadline) // want `time.Until reads the wall clock`
}

func injected(c clock) time.Time {
	return c.Now().UTC()
}

func argument(now time.Time) bool {
	return now.After(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func nolintGeneral() {
	//nolint
	_ = time.Now()
}

func nolintSpecific() {
	_ = time.Now() //nolint:wallclock
}

func nolintList() {
	_ = time.Now() //nolint:errcheck,wallclock
}

func nolintOtherLinter() {
	_ = time.Now() //nolint:otherlinter // want `time.Now reads the wall clock`
}
