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

// Package export stores generated board reports, either in a local directory
// or in an S3 bucket.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// ErrNotFound is returned by Sink.Get for names that were never stored.
var ErrNotFound = errors.New("report not found")

// Sink is a place to keep report files.
type Sink interface {
	Put(ctx context.Context, name, contentType string, body io.Reader) error
	Get(ctx context.Context, name string) (io.ReadSeeker, error)
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// CheckName rejects report names that could escape the sink's namespace.
func CheckName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid report name %q", name)
	}
	return nil
}
