// Package reactorlog provides a package-level, swappable structured
// logger shared by reactor, fupool, and pathset: a global logger variable
// behind a mutex, with a default that writes JSON to stderr at
// informational level, so importers never need to nil-check before logging.
package reactorlog

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var global struct {
	sync.RWMutex
	logger *logiface.Logger[*stumpy.Event]
}

func init() {
	global.logger = newDefault()
}

func newDefault() *logiface.Logger[*stumpy.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelInformational),
	)
}

// SetLogger replaces the package-level logger. Passing nil restores the
// default stderr JSON logger at informational level. Loggers already
// returned by Component keep the logger they were derived from; reactor,
// fupool, and pathset derive theirs at package initialisation, so SetLogger
// does not change their output.
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	global.Lock()
	defer global.Unlock()
	if l == nil {
		l = newDefault()
	}
	global.logger = l
}

// Logger returns the current package-level logger.
func Logger() *logiface.Logger[*stumpy.Event] {
	global.RLock()
	defer global.RUnlock()
	return global.logger
}

// Component returns a child logger tagging every event with a "component"
// field, for use by a single subsystem (e.g. "reactor", "fupool").
func Component(name string) *logiface.Logger[*stumpy.Event] {
	return Logger().Clone().Str(`component`, name).Logger()
}
