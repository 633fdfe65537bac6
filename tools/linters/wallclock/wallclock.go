// Package wallclock provides a linter that reports direct reads of the system clock.
//
// The priority, recurrence, dependency, progress and roadmap engines take the
// current time as an argument, and the application layer reads it from a
// domain.Clock. A stray time.Now() in those packages makes their output depend
// on when a test happens to run.
package wallclock

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports calls to time.Now, time.Since and time.Until.
var Analyzer = &analysis.Analyzer{
	Name: "wallclock",
	Doc:  "reports time.Now, time.Since and time.Until calls in packages that must take the current time as input",
	Run:  run,
}

var clockReads = map[string]bool{
	"Now":   true,
	"Since": true,
	"Until": true,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			name, ok := clockRead(pass, call)
			if !ok {
				return true
			}
			if hasNolintComment(pass, file, call) {
				return true
			}

			pass.Reportf(call.Pos(), "time.%s reads the wall clock; take the current time from a domain.Clock or a now argument", name)
			return true
		})
	}
	return nil, nil
}

// clockRead resolves the callee through type information so that renamed
// imports of the time package are caught too.
func clockRead(pass *analysis.Pass, call *ast.CallExpr) (string, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}

	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "time" {
		return "", false
	}
	if !clockReads[fn.Name()] {
		return "", false
	}
	return fn.Name(), true
}

// hasNolintComment reports whether a //nolint or //nolint:wallclock comment sits on
// the call's line or the line above it.
func hasNolintComment(pass *analysis.Pass, file *ast.File, call *ast.CallExpr) bool {
	line := pass.Fset.Position(call.Pos()).Line

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			commentLine := pass.Fset.Position(c.Pos()).Line
			if commentLine != line && commentLine != line-1 {
				continue
			}

			directive, ok := strings.CutPrefix(c.Text, "//nolint")
			if !ok {
				continue
			}
			linters, scoped := strings.CutPrefix(directive, ":")
			if !scoped {
				return true
			}
			linters, _, _ = strings.Cut(linters, " ")
			for name := range strings.SplitSeq(linters, ",") {
				if name == pass.Analyzer.Name {
					return true
				}
			}
		}
	}
	return false
}
