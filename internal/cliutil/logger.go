// Package cliutil holds the small pieces shared by the four CLI
// tools: a leveled logger and a couple of flag.Value types for
// dimension/rational command-line arguments.
package cliutil

import "go.uber.org/zap"

// NewLogger returns a console-oriented zap.SugaredLogger: one line
// per event, leveled, keyed by a named source the way the teacher's
// pkg/log.Event.Src distinguishes event origins, but without that
// package's sqlite persistence — these tools run once and exit.
func NewLogger(src string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.Sugar().Named(src)
}
