/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitAndStructuredLoggingToFile verifies that the rotating file handler writes
// JSON records carrying static, contextual and context-carried attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("lup_log_%d.json", time.Now().UnixNano()))

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithItem(WithOperation(WithComponent("testcomp"), "op1"), "abcDEF123456")
	ctx := ContextWith(context.Background(), slog.String("show", "s1"))
	l.InfoContext(ctx, "hello world", slog.String("k", "v"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	want := map[string]string{
		"app":       "lightsup",
		"component": "testcomp",
		"op":        "op1",
		"item":      "abcDEF123456",
		"show":      "s1",
		"msg":       "hello world",
		"k":         "v",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("attr %s = %v, want %s", k, m[k], v)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
}

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("LUP_LOG_LEVEL", "warn")
	t.Setenv("LUP_LOG_FORMAT", "json")
	t.Setenv("LUP_LOG_SOURCE", "true")
	t.Setenv("LUP_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("LUP_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestConsoleHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{level: slog.LevelWarn, w: &buf}

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Bool("ok", true))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "boom", " k=v", "grp.n=42", "grp.pi=3.14", "grp.ok=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
