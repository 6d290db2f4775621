package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authrelay/authrelay/internal/logger"
)

func TestInit_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  logger.Log
		want error
	}{
		{
			name: "unknown level",
			cfg:  logger.Log{LogLevel: "loud", ServiceName: "test", AppName: "test"},
		},
		{
			name: "missing service name",
			cfg:  logger.Log{LogLevel: "info", AppName: "test"},
			want: logger.ErrServiceNameIsEmpty,
		},
		{
			name: "missing app name",
			cfg:  logger.Log{LogLevel: "info", ServiceName: "test"},
			want: logger.ErrAppNameIsEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logger.Init(tt.cfg)
			require.Error(t, err)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	type testCase struct {
		name             string
		cfg              logger.Log
		shouldHaveOutPut bool
		outPutIsJSON     bool
	}

	testCases := []testCase{
		{
			name: "no logger enabled log level not set",
			cfg: logger.Log{
				LogLevel:    "",
				ServiceName: "test",
				AppName:     "test",
			},
			shouldHaveOutPut: false,
		},
		{
			name: "console enabled console writer enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer disabled info expect json",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: false},
			},
			shouldHaveOutPut: true,
			outPutIsJSON:     true,
		},
		{
			name: "console enabled trace with caller expect json stack",
			cfg: logger.Log{
				LogLevel:     "trace",
				ServiceName:  "test",
				AppName:      "test",
				ReportCaller: true,
				Console:      logger.Console{Enabled: true, UseConsoleWriter: false},
			},
			shouldHaveOutPut: true,
			outPutIsJSON:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := captureOutput(t, tc.cfg)

			if !tc.shouldHaveOutPut {
				assert.Empty(t, out)
				return
			}

			require.NotEmpty(t, out)

			if !tc.outPutIsJSON {
				return
			}

			for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
				var entry struct {
					Level   string `json:"level"`
					Service string `json:"service"`
					Message string `json:"message"`
				}

				require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
				assert.Equal(t, "test", entry.Service)
				assert.NotEmpty(t, entry.Level)
			}
		})
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestLevelWriter(t *testing.T) {
	var errBuf, infoBuf, traceBuf, warnBuf bytes.Buffer

	lw := &logger.LevelWriter{
		ErrorWriter: &errBuf,
		InfoWriter:  &infoBuf,
		TraceWriter: &traceBuf,
		WarnWriter:  &warnBuf,
	}

	writes := map[zerolog.Level]string{
		zerolog.TraceLevel: "trace",
		zerolog.DebugLevel: "debug",
		zerolog.InfoLevel:  "info",
		zerolog.WarnLevel:  "warn",
		zerolog.ErrorLevel: "error",
		zerolog.FatalLevel: "fatal",
		zerolog.Disabled:   "disabled",
	}

	for level, msg := range writes {
		_, err := lw.WriteLevel(level, []byte(msg+";"))
		require.NoError(t, err)
	}

	assert.Equal(t, "trace;", traceBuf.String())
	assert.Equal(t, "warn;", warnBuf.String())
	assert.ElementsMatch(t, []string{"debug", "info"}, splitEntries(infoBuf.String()))
	assert.ElementsMatch(t, []string{"error", "fatal"}, splitEntries(errBuf.String()))
}

func TestInit_RollingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	err := logger.Init(logger.Log{
		LogLevel:    "info",
		ServiceName: "test",
		AppName:     "test",
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Error:   logger.RollingFile{Name: "error.log", MaxSize: 1},
			Info:    logger.RollingFile{Name: "info.log", MaxSize: 1},
			Trace:   logger.RollingFile{Name: "trace.log", MaxSize: 1},
			Warn:    logger.RollingFile{Name: "warn.log", MaxSize: 1},
		},
	})
	require.NoError(t, err)

	log.Info().Msg("written to info")
	log.Error().Err(alwaysErrFunc()).Msg("written to error")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "written to info")
	assert.NotContains(t, string(info), "written to error")

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "a test error")

	_, err = os.Stat(filepath.Join(dir, "warn.log"))
	assert.True(t, os.IsNotExist(err))

	log.Logger = zerolog.Nop()
}

func splitEntries(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ';' })
}

func alwaysErrFunc() error {
	return errors.New("a test error") //nolint:goerr113
}

func captureOutput(t *testing.T, cfg logger.Log) string {
	t.Helper()
	// keep default std out
	stdout := os.Stdout
	stderr := os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	if errInit := logger.Init(cfg); errInit != nil {
		t.Error(errInit)
	}

	log.Info().Msg("this info message should be seen...")
	log.Error().Err(alwaysErrFunc()).Msg("this err message should be seen...")
	log.Trace().Err(alwaysErrFunc()).Msg("this trace message should be seen...")

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	// back to normal state
	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr

	return <-outC
}
