package wallclock_test

import (
	"testing"

	"github.com/rezkam/compass/tools/linters/wallclock"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, wallclock.Analyzer, "a", "b")
}
