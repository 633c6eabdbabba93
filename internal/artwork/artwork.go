/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package artwork resolves symbol references like "fixtures/ers" to parsed
// SVG artwork. The built-in library is embedded; a directory on disk can
// shadow any of its entries.
package artwork

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"

	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

//go:embed symbols
var builtin embed.FS

var (
	ErrNotFound   = errors.New("symbol not found")
	ErrInvalidRef = errors.New("invalid symbol reference")
)

const (
	kindFixtures  = "fixtures"
	kindPositions = "positions"
	DimmerRef     = "util/dimmer"
)

func FixtureRef(shape string) string  { return kindFixtures + "/" + shape }
func PositionRef(shape string) string { return kindPositions + "/" + shape }

// Symbol is resolved artwork with its intrinsic size.
type Symbol struct {
	Ref  string
	Size vector.Size
	Data []byte
}

// Node builds a fresh scene node for the symbol.
func (s Symbol) Node() *vector.SymbolNode {
	return vector.NewSymbol(s.Ref, s.Size, s.Data)
}

// Resolver loads artwork by reference. Implementations may block.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Symbol, error)
}

var refPattern = regexp.MustCompile(`^[a-z]+/[A-Za-z0-9_-]+$`)

// Library resolves from an optional override directory, then the embedded
// set. Results are cached per reference.
type Library struct {
	layers []fs.FS
	mu     sync.Mutex
	cache  map[string]Symbol
}

// NewLibrary returns a library; dir may be empty.
func NewLibrary(dir string) *Library {
	l := &Library{cache: map[string]Symbol{}}
	if strings.TrimSpace(dir) != "" {
		l.layers = append(l.layers, os.DirFS(dir))
	}
	sub, err := fs.Sub(builtin, "symbols")
	if err == nil {
		l.layers = append(l.layers, sub)
	}
	return l
}

func (l *Library) Resolve(ctx context.Context, ref string) (Symbol, error) {
	if !refPattern.MatchString(ref) {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if err := ctx.Err(); err != nil {
		return Symbol{}, err
	}
	l.mu.Lock()
	if s, ok := l.cache[ref]; ok {
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	lg := applog.WithOperation(applog.WithComponent("artwork"), "resolve").With(slog.String("ref", ref))
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, ref+".svg")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			lg.Warn("read symbol failed", slog.Any("err", err))
			return Symbol{}, fmt.Errorf("read %s: %w", ref, err)
		}
		s, err := parse(ref, data)
		if err != nil {
			lg.Warn("parse symbol failed", slog.Any("err", err))
			return Symbol{}, err
		}
		l.mu.Lock()
		l.cache[ref] = s
		l.mu.Unlock()
		return s, nil
	}
	lg.Debug("symbol missing")
	return Symbol{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// Cached returns a previously resolved symbol without touching any layer.
func (l *Library) Cached(ref string) (Symbol, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.cache[ref]
	return s, ok
}

func parse(ref string, data []byte) (Symbol, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return Symbol{}, fmt.Errorf("parse %s: %w", ref, err)
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		return Symbol{}, fmt.Errorf("parse %s: empty viewBox", ref)
	}
	return Symbol{Ref: ref, Size: vector.Size{W: w, H: h}, Data: data}, nil
}

// Shapes lists the shapes available for a kind ("fixtures" or "positions"),
// merged across layers and sorted.
func (l *Library) Shapes(kind string) []string {
	seen := map[string]bool{}
	var out []string
	for _, layer := range l.layers {
		ents, err := fs.ReadDir(layer, kind)
		if err != nil {
			continue
		}
		for _, e := range ents {
			name := e.Name()
			if e.IsDir() || path.Ext(name) != ".svg" {
				continue
			}
			shape := strings.TrimSuffix(name, ".svg")
			if !seen[shape] {
				seen[shape] = true
				out = append(out, shape)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (l *Library) FixtureShapes() []string  { return l.Shapes(kindFixtures) }
func (l *Library) PositionShapes() []string { return l.Shapes(kindPositions) }
