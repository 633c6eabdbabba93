/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/kv"
	"github.com/davidroberthoare/lightsup/internal/persist"
	"github.com/davidroberthoare/lightsup/internal/store"
)

// silence swaps stderr for a pipe and intercepts exitFn for the test.
func silence(t *testing.T) *int {
	t.Helper()
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r) // drain pipe
	})
	code := new(int)
	oldExit := exitFn
	exitFn = func(c int) { *code = c }
	t.Cleanup(func() { exitFn = oldExit })
	return code
}

func findReport(t *testing.T, dir string) []byte {
	t.Helper()
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			b, err := os.ReadFile(filepath.Join(dir, f.Name()))
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			return b
		}
	}
	t.Fatalf("expected crash report file under %s", dir)
	return nil
}

// TestRecoverWritesReportAndSnapshot ensures Recover handles a panic, writes a
// report and a crash snapshot, and does not terminate the test process.
func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	code := silence(t)
	ctx := context.Background()
	blobs := kv.NewMemory()
	items := store.NewMemory()
	if _, err := items.Create(ctx, domain.NewItem(domain.TypeFixture, "ers", 10, 10)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	bridge := persist.New(blobs, items, nil)
	dir := t.TempDir()

	func() {
		defer Recover(bridge, dir)
		panic("boom")
	}()

	if b := findReport(t, dir); !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	data, ok, err := blobs.Get(ctx, SnapshotKey)
	if err != nil || !ok {
		t.Fatalf("crash snapshot missing: ok=%v err=%v", ok, err)
	}
	snap, err := persist.Decode(data)
	if err != nil || len(snap.Items) != 1 {
		t.Fatalf("crash snapshot unreadable: %v (%d items)", err, len(snap.Items))
	}
	if _, ok, _ := blobs.Get(ctx, persist.DefaultKey); ok {
		t.Fatalf("crash autosave must not overwrite the regular snapshot")
	}
	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
}

type failingSaver struct{ calls int }

func (f *failingSaver) SaveAs(context.Context, string) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecoverSurvivesAutosaveFailure(t *testing.T) {
	code := silence(t)
	saver := &failingSaver{}
	dir := t.TempDir()
	func() {
		defer Recover(saver, dir)
		panic(errors.New("nil map"))
	}()
	if saver.calls != 1 {
		t.Fatalf("autosave attempted %d times", saver.calls)
	}
	findReport(t, dir)
	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	code := silence(t)
	*code = -1
	func() {
		defer Recover(nil, t.TempDir())
	}()
	if *code != -1 {
		t.Fatalf("exit called without a panic")
	}
}
