package b

import stdtime "time"

type local struct{}

func (local) Now() stdtime.Time { return stdtime.Time{} }

func renamedImport() {
	_ = stdtime.Now() // want `time.Now reads the wall clock`
}

func sameNameMethod() {
	_ = local{}.Now()
}
