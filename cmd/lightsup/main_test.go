/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidroberthoare/lightsup/internal/config"
	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/persist"
	"github.com/davidroberthoare/lightsup/internal/session"
)

// seeded stores a position with one overlapping, not yet associated fixture.
func seeded(t *testing.T) config.AppConfig {
	t.Helper()
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Storage.Path = t.TempDir()

	s, err := session.Open(ctx, cfg, "")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	pos := domain.NewItem(domain.TypePosition, "pipe", 0, 0)
	pos.Label = "FOH"
	if _, err := s.Items.Create(ctx, pos); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	fx := domain.NewItem(domain.TypeFixture, "par", 50, 0)
	fx.Label = "wash"
	if _, err := s.Items.Create(ctx, fx); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := s.Bridge.Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	return cfg
}

func TestCheckThenReport(t *testing.T) {
	cfg := seeded(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := runReport(ctx, cfg, "", nil, &out); err != nil {
		t.Fatalf("report error: %v", err)
	}
	if !strings.Contains(out.String(), "(none)") {
		t.Fatalf("unassociated fixture should be listed under (none):\n%s", out.String())
	}

	out.Reset()
	if err := runCheck(ctx, cfg, "", &out); err != nil {
		t.Fatalf("check error: %v", err)
	}
	if !strings.Contains(out.String(), "Checked 1 fixtures (1 on positions) and 1 positions") {
		t.Fatalf("unexpected check output: %s", out.String())
	}

	out.Reset()
	if err := runReport(ctx, cfg, "", nil, &out); err != nil {
		t.Fatalf("report error: %v", err)
	}
	if !strings.Contains(out.String(), "FOH") || strings.Contains(out.String(), "(none)") {
		t.Fatalf("fixture should now hang on FOH:\n%s", out.String())
	}
}

func TestReportPDF(t *testing.T) {
	cfg := seeded(t)
	path := filepath.Join(t.TempDir(), "schedule.pdf")
	var out bytes.Buffer
	if err := runReport(context.Background(), cfg, "", []string{"--pdf", path}, &out); err != nil {
		t.Fatalf("report error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("expected a PDF at %s (err %v)", path, err)
	}
}

func TestReportRejectsUnknownFlag(t *testing.T) {
	err := runReport(context.Background(), config.Defaults(), "", []string{"--xlsx"}, &bytes.Buffer{})
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestDumpPrintsSnapshot(t *testing.T) {
	cfg := seeded(t)
	var out bytes.Buffer
	if err := runDump(context.Background(), cfg, "", &out); err != nil {
		t.Fatalf("dump error: %v", err)
	}
	snap, err := persist.Decode(out.Bytes())
	if err != nil {
		t.Fatalf("dump output is not a snapshot: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("dumped %d items", len(snap.Items))
	}
}

func TestConfigMarksEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv(config.EnvStorageDriver, "memory")
	cfg := config.Defaults()
	cfg.Storage.Driver = "memory"
	var out bytes.Buffer
	runConfig(cfg, &out)
	if !strings.Contains(out.String(), "storage.driver = memory  (from "+config.EnvStorageDriver+")") {
		t.Fatalf("unexpected config output:\n%s", out.String())
	}
	if strings.Contains(strings.ToLower(out.String()), "secret") {
		t.Fatalf("config output must not mention secrets")
	}
}

func TestExportWritesImages(t *testing.T) {
	cfg := seeded(t)
	ctx := context.Background()
	dir := t.TempDir()

	for _, args := range [][]string{
		{filepath.Join(dir, "plot.svg")},
		{"--preset", "print", "--scale", "2", filepath.Join(dir, "plot.png")},
	} {
		var out bytes.Buffer
		if err := runExport(ctx, cfg, "", args, &out); err != nil {
			t.Fatalf("export %v error: %v", args, err)
		}
		path := args[len(args)-1]
		if !strings.Contains(out.String(), "Wrote plot to "+path) {
			t.Fatalf("unexpected output: %s", out.String())
		}
		if st, err := os.Stat(path); err != nil || st.Size() == 0 {
			t.Fatalf("expected %s to be written: %v", path, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "plot.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(data), "<image") {
		t.Fatalf("fixture and position symbols should be embedded")
	}
}

func TestExportNeedsOneFile(t *testing.T) {
	cfg := seeded(t)
	if err := runExport(context.Background(), cfg, "", nil, &bytes.Buffer{}); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage, got %v", err)
	}
}
