// Package vaultlog configures the application-wide logger. Every component
// logs through Log rather than constructing its own logrus instance.
package vaultlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Log is the vault-wide logger. Configure must be called once at startup
// before any component logs; until then Log behaves like logrus's default.
var Log = logrus.New()

type contextHook struct{}

func (contextHook) Levels() []logrus.Level { return logrus.AllLevels }

func packageFromFunc(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	if i := strings.Index(fn, "."); i >= 0 {
		return fn[:i]
	}
	return fn
}

func (contextHook) Fire(e *logrus.Entry) error {
	if e.Caller == nil {
		return nil
	}
	e.Data["package"] = packageFromFunc(e.Caller.Function)
	e.Data["file"] = fmt.Sprintf("%s:%d", filepath.Base(e.Caller.File), e.Caller.Line)
	return nil
}

// Configure wires up JSON logging to stdout plus logPath (best effort: if
// the file can't be opened, Log falls back to stdout only), and sets the
// level from levelStr (empty defaults to "info").
func Configure(logPath, levelStr string) {
	Log.SetReportCaller(true)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return filepath.Base(f.Function), fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		},
	})
	Log.ReplaceHooks(make(logrus.LevelHooks))
	Log.AddHook(contextHook{})

	if logPath == "" {
		logPath = "altdump.log"
	}
	if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
		Log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	} else {
		Log.SetOutput(os.Stdout)
	}

	if levelStr == "" {
		levelStr = "info"
	}
	if lvl, err := logrus.ParseLevel(levelStr); err == nil {
		Log.SetLevel(lvl)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}
