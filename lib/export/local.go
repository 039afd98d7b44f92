//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package export

import (
	"context"
	"errors"
	"fmt"
	"github.com/municipal-ops/dispatch-board/lib/format"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// LocalSink writes reports into a single directory. All access goes through
// an os.Root, so no name can reach outside of it.
type LocalSink struct {
	root *os.Root
}

// NewLocalSink creates dir if needed and opens it.
func NewLocalSink(dir string) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("[MkdirAll]: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("[OpenRoot]: %w", err)
	}
	return &LocalSink{root: root}, nil
}

func (l *LocalSink) Put(_ context.Context, name, _ string, body io.Reader) error {
	if err := CheckName(name); err != nil {
		return err
	}
	start := time.Now()
	outFi, err := l.root.Create(name)
	if err != nil {
		return fmt.Errorf("[Create]: %w", err)
	}
	n, err := io.Copy(outFi, body)
	if err != nil {
		_ = outFi.Close()
		return fmt.Errorf("[io.Copy]: %w", err)
	}
	if err = outFi.Close(); err != nil {
		return fmt.Errorf("[Close]: %w", err)
	}
	slog.Debug("Wrote report to local dir", "name", name, "size", format.ByteSize(n), "duration", time.Since(start))
	return nil
}

func (l *LocalSink) Get(_ context.Context, name string) (io.ReadSeeker, error) {
	if err := CheckName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	file, err := l.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, name)
		}
		return nil, fmt.Errorf("[Open]: %w", err)
	}
	return file, nil
}

func (l *LocalSink) Close() error {
	return l.root.Close()
}
