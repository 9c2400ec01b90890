// Package logger initializes the process-wide zap logger.  Packages log
// through zap.S() / zap.L() so nothing else needs a logger dependency.
package logger

import (
	"go.uber.org/zap"
)

// Init installs the global logger.  "prod" environments get sampled
// JSON output; everything else gets the human-readable development
// console.  The returned function flushes buffered entries and should
// be deferred in main.
func Init(env string) func() {
	var (
		l   *zap.Logger
		err error
	)
	if env == "prod" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	return func() { _ = l.Sync() }
}
