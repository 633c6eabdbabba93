/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/davidroberthoare/lightsup/internal/config"
	"github.com/davidroberthoare/lightsup/internal/crash"
	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/export"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/persist"
	"github.com/davidroberthoare/lightsup/internal/report"
	"github.com/davidroberthoare/lightsup/internal/session"
	"github.com/davidroberthoare/lightsup/internal/ui"
	"github.com/davidroberthoare/lightsup/internal/vector"
	"github.com/davidroberthoare/lightsup/internal/version"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "lightsup - lighting plot editor")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lightsup version|-v|--version     Show version")
	fmt.Fprintln(w, "  lightsup ui                       Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Fprintln(w, "  lightsup report [--pdf <file>]    Print the fixture schedule, or write it as PDF")
	fmt.Fprintln(w, "  lightsup check                    Reassociate and renumber every fixture, then save")
	fmt.Fprintln(w, "  lightsup export [--preset web|print] [--scale N] [--grid] <file.svg|file.png>")
	fmt.Fprintln(w, "                                    Draw the plot to an SVG or PNG file")
	fmt.Fprintln(w, "  lightsup dump                     Print the stored plot as JSON")
	fmt.Fprintln(w, "  lightsup config                   Show the effective configuration")
}

func main() {
	cfg, secret, err := config.Load()
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("cli")
	if err != nil {
		l.Error("load config failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage(os.Stdout)
		return
	}
	ctx := context.Background()
	cmd, rest := args[1], args[2:]
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println("lightsup")
		fmt.Println(version.String())
		return
	case "ui":
		err = ui.Run(ui.Options{Config: cfg, Secret: secret, CrashDir: crashDir()})
	case "report":
		err = runReport(ctx, cfg, secret, rest, os.Stdout)
	case "check":
		err = runCheck(ctx, cfg, secret, os.Stdout)
	case "export":
		err = runExport(ctx, cfg, secret, rest, os.Stdout)
	case "dump":
		err = runDump(ctx, cfg, secret, os.Stdout)
	case "config":
		runConfig(cfg, os.Stdout)
	default:
		usage(os.Stdout)
		os.Exit(2)
	}
	if errors.Is(err, errUsage) {
		usage(os.Stdout)
		os.Exit(2)
	}
	if err != nil {
		l.Error("command failed", slog.String("cmd", cmd), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// crashDir keeps crash reports next to the config file.
func crashDir() string {
	path, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "crash")
}

func runReport(ctx context.Context, cfg config.AppConfig, secret string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pdfPath := fs.String("pdf", "", "write the schedule as PDF to this file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	s, err := session.Open(ctx, cfg, secret)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer crash.Recover(s.Bridge, crashDir())

	r, err := s.Report(ctx)
	if err != nil {
		return err
	}
	show := s.Shows.Current()
	if *pdfPath == "" {
		return report.WriteText(out, show, r)
	}
	if err := report.WritePDF(*pdfPath, show, r); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d fixtures to %s\n", r.Total, *pdfPath)
	return nil
}

// runCheck draws the plot headlessly so association can test overlap, then
// reassociates every fixture and saves the result.
func runCheck(ctx context.Context, cfg config.AppConfig, secret string, out io.Writer) error {
	s, err := session.Open(ctx, cfg, secret)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer crash.Recover(s.Bridge, crashDir())

	ed := s.Editor(vector.NewScene())
	ed.RebuildScene(ctx)
	ed.Settle()
	ed.Reconcile(ctx)
	if err := s.Bridge.Save(ctx); err != nil {
		return err
	}

	items, err := s.Items.QueryAll(ctx)
	if err != nil {
		return err
	}
	var fixtures, positions, hung int
	for _, it := range items {
		switch it.Type {
		case domain.TypePosition:
			positions++
		case domain.TypeFixture:
			fixtures++
			if it.Position != "" {
				hung++
			}
		}
	}
	fmt.Fprintf(out, "Checked %d fixtures (%d on positions) and %d positions; saved to %q\n", fixtures, hung, positions, s.Bridge.Key())
	return nil
}

// runExport draws the stored plot headlessly and writes it as an image.
func runExport(ctx context.Context, cfg config.AppConfig, secret string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	preset := fs.String("preset", string(export.PresetWeb), "export preset (web or print)")
	scale := fs.Float64("scale", 0, "output pixels per plot unit; overrides the preset")
	grid := fs.Bool("grid", false, "include the background grid")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: export needs exactly one output file", errUsage)
	}
	path := fs.Arg(0)
	opt := export.Preset(export.PresetName(*preset))
	if *scale > 0 {
		opt.Scale = *scale
	}
	if *grid {
		opt.IncludeGrid = true
	}

	s, err := session.Open(ctx, cfg, secret)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer crash.Recover(s.Bridge, crashDir())

	scene := vector.NewScene()
	ed := s.Editor(scene)
	ed.RebuildScene(ctx)
	ed.Settle()
	if err := export.WriteFile(path, scene, opt); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote plot to %s\n", path)
	return nil
}

func runDump(ctx context.Context, cfg config.AppConfig, secret string, out io.Writer) error {
	s, err := session.Open(ctx, cfg, secret)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	snap, err := s.Bridge.Snapshot(ctx)
	if err != nil {
		return err
	}
	data, err := persist.Encode(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func runConfig(cfg config.AppConfig, out io.Writer) {
	if path, err := config.ConfigPath(); err == nil {
		fmt.Fprintf(out, "# %s\n", path)
	}
	for _, pair := range cfg.Describe() {
		line := fmt.Sprintf("%s = %s", pair[0], pair[1])
		if env, ok := config.EnvOverrideFor(pair[0]); ok {
			line += fmt.Sprintf("  (from %s)", env)
		}
		fmt.Fprintln(out, line)
	}
}
