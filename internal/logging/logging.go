// Package logging builds the process-wide zap logger. Grounded on the
// structured, passed-in (never global) logger style used throughout the
// engine pool and controller packages.
package logging

import "go.uber.org/zap"

// New builds a zap.Logger: development (console, debug level) when debug
// is true, production (JSON, info level) otherwise.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
