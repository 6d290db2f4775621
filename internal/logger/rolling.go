package logger

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logDirPerm = 0o750

// Writer returns a rotating writer for the file below dir.
func (f RollingFile) Writer(dir string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(dir, f.Name),
		MaxSize:    f.MaxSize,
		MaxAge:     f.MaxAge,
		MaxBackups: f.MaxBackups,
		LocalTime:  false,
		Compress:   f.Compress,
	}
}

// EnsureDir creates the log directory if a path is configured.
func (f LogFile) EnsureDir() error {
	if f.Path == "" {
		return nil
	}

	if err := os.MkdirAll(f.Path, logDirPerm); err != nil {
		return errors.Wrapf(err, "can't create log directory %s", f.Path)
	}

	return nil
}
