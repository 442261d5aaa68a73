/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(msg string, fields logrus.Fields) *logrus.Entry {
	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = msg
	entry.Data = fields
	return entry
}

func TestNewLogger_ReturnsRegisteredInstance(t *testing.T) {
	first := NewLogger("UTILS_TEST")
	second := NewLogger("UTILS_TEST")
	assert.Same(t, first, second)

	got, ok := GetLogger("UTILS_TEST")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestSetLoggerLevel(t *testing.T) {
	lg := NewLogger("LEVEL_TEST")
	assert.True(t, SetLoggerLevel("LEVEL_TEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, lg.GetLevel())
	assert.False(t, SetLoggerLevel("NO_SUCH_LOGGER", "debug"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.TraceLevel, ParseLogLevel("TRACE"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestLog4jColorFormatter_Format(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "DATABASE", DisableColors: true, NameWidth: 10}
	entry := newEntry("slow query", logrus.Fields{"b": 2, "a": "x"})
	entry.Caller = &runtime.Frame{File: "/src/studentstore/database/hook.go", Line: 42}

	out, err := f.Format(entry)
	require.NoError(t, err)
	line := string(out)

	assert.True(t, strings.HasPrefix(line, "2025-03-01 12:30:00.000 WARNING"))
	assert.Contains(t, line, "  DATABASE database/hook.go:42 : slow query a=x b=2\n")
	assert.NotContains(t, line, "\x1b[")
}

func TestJSONLogFormatter_Format(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "MAIN"}
	entry := newEntry("saved", logrus.Fields{"id": 7, "error": errors.New("boom")})

	out, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "MAIN", rec["logger"])
	assert.Equal(t, "saved", rec["message"])
	fields := rec["fields"].(map[string]interface{})
	assert.Equal(t, float64(7), fields["id"])
	assert.Equal(t, "boom", fields["error"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STUDENTSTORE_TEST_BOOL", "true")
	t.Setenv("STUDENTSTORE_TEST_BAD", "nope")
	t.Setenv("STUDENTSTORE_TEST_STR", "value")

	assert.True(t, EnvDefaultBool("STUDENTSTORE_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("STUDENTSTORE_TEST_BAD", true))
	assert.False(t, EnvDefaultBool("STUDENTSTORE_TEST_UNSET", false))
	assert.Equal(t, "value", EnvDefaultString("STUDENTSTORE_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefaultString("STUDENTSTORE_TEST_UNSET", "def"))
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestConfigureFileLog_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	ConfigureConsoleOutput(&console)
	t.Cleanup(func() { ConfigureConsoleOutput(nil) })

	require.NoError(t, ConfigureFileLog(dir, 7, "text"))
	t.Cleanup(DisableFileLog)

	lg := NewLogger("FILE_TEST")
	lg.SetLevel(logrus.DebugLevel)
	lg.WithField("id", 7).Info("saved")
	lg.Warn("slow")
	lg.Debug("detail")

	day := filepath.Join(dir, time.Now().Format(logDateFormat))
	info := readLog(t, filepath.Join(day, "info.log"))
	assert.Contains(t, info, "FILE_TEST")
	assert.Contains(t, info, ": saved id=7")
	assert.NotContains(t, info, "\x1b[")
	assert.NotContains(t, info, "slow")
	assert.Contains(t, readLog(t, filepath.Join(day, "warn.log")), "slow")
	assert.Contains(t, readLog(t, filepath.Join(day, "debug.log")), "detail")
	assert.Contains(t, console.String(), "saved")

	DisableFileLog()
	lg.Info("after disable")
	assert.NotContains(t, readLog(t, filepath.Join(day, "info.log")), "after disable")
}

func TestConfigureFileLog_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ConfigureFileLog(dir, -1, "json"))
	t.Cleanup(DisableFileLog)

	lg := NewLogger("FILE_JSON_TEST")
	lg.SetOutput(&bytes.Buffer{})
	lg.Error("failed")

	line := readLog(t, filepath.Join(dir, time.Now().Format(logDateFormat), "error.log"))
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(line)), &rec))
	assert.Equal(t, "failed", rec["message"])
	assert.Equal(t, "FILE_JSON_TEST", rec["logger"])
}

func TestDailyLevelWriter_RollsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "2025-02-20")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-date"), 0o755))

	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.Local)
	w := &dailyLevelWriter{baseDir: dir, level: "info", maxAgeDays: 3, now: func() time.Time { return now }}
	t.Cleanup(w.Close)

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, filepath.Join(dir, "not-a-date"))

	now = now.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	assert.Equal(t, "first\n", readLog(t, filepath.Join(dir, "2025-03-01", "info.log")))
	assert.Equal(t, "second\n", readLog(t, filepath.Join(dir, "2025-03-02", "info.log")))

	keep := &dailyLevelWriter{baseDir: dir, level: "info", maxAgeDays: -1, now: func() time.Time { return now.AddDate(1, 0, 0) }}
	t.Cleanup(keep.Close)
	_, err = keep.Write([]byte("later\n"))
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "2025-03-01"))
}
