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

package api

import (
	"errors"
	"fmt"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestMustWriteJSONErrors(t *testing.T) {
	t.Parallel()

	// error if the response can't be marshalled as JSON
	rec := httptest.NewRecorder()
	req := &http.Request{URL: &url.URL{}}
	cantBeMarshalled := complex64(1 + 1i)
	ok := mustWriteJSON(rec, req, cantBeMarshalled)
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, rec.Result().StatusCode)

	// error if the JSON can't be written to the response writer
	w := angryResponseWriter{httptest.NewRecorder()}
	ok = mustWriteJSON(w, req, "can be marshalled")
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
}

func TestReadBodyAsErrors(t *testing.T) {
	t.Parallel()

	// error if the request body read fails
	req := &http.Request{
		Body: angryReader{},
	}
	_, errHTTP := readBodyAs[any](req)
	require.NotNil(t, errHTTP)
	assert.Equal(t, http.StatusBadRequest, errHTTP.Code)

	// error if the request body isn't valid JSON
	req = &http.Request{
		Body: io.NopCloser(strings.NewReader("this isn't json")),
	}
	_, errHTTP = readBodyAs[any](req)
	require.NotNil(t, errHTTP)
	require.Equal(t, http.StatusBadRequest, errHTTP.Code)
	require.True(t, errHTTP.ExpectedError)

	// error if the body is bigger than allowed
	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"description": "far too long"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 8)
	_, errHTTP = readBodyAs[map[string]string](req)
	require.NotNil(t, errHTTP)
	require.Equal(t, http.StatusRequestEntityTooLarge, errHTTP.Code)
}

func TestFromBoardErr(t *testing.T) {
	t.Parallel()

	verr := &board.ValidationError{Fields: []board.FieldError{
		{Field: "category", Message: "must be one of: fire, accident, medical"},
	}}
	errHTTP := fromBoardErr(fmt.Errorf("[Submit]: %w", verr))
	assert.Equal(t, http.StatusBadRequest, errHTTP.Code)
	assert.True(t, errHTTP.ExpectedError)
	require.Len(t, errHTTP.Fields, 1)
	assert.Equal(t, "category", errHTTP.Fields[0].Field)

	errHTTP = fromBoardErr(fmt.Errorf("[lookup]: %w", board.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, errHTTP.Code)
	assert.True(t, errHTTP.ExpectedError)

	terr := &board.TransitionError{IncidentID: "INC-004", From: board.StateResolved, To: board.StateInProgress}
	errHTTP = fromBoardErr(terr)
	assert.Equal(t, http.StatusConflict, errHTTP.Code)
	assert.Equal(t, "Cannot move incident INC-004 from resolved to in_progress", errHTTP.ResponseMessage)

	errHTTP = fromBoardErr(errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, errHTTP.Code)
	assert.False(t, errHTTP.ExpectedError)
}

func TestQueryList(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/?state=pending,+in_progress&state=resolved&state=", nil)
	assert.Equal(t, []string{"pending", "in_progress", "resolved"}, queryList(req, "state"))
	assert.Empty(t, queryList(req, "kind"))
}

// angryResponseWriter is an http.ResponseWriter that complains if
// you try to write to it.
type angryResponseWriter struct {
	*httptest.ResponseRecorder
}

func (angryResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("go away!")
}

type angryReader struct {
	io.ReadCloser
}

func (angryReader) Read([]byte) (int, error) {
	return 0, errors.New("go away!")
}

func (angryReader) Close() error {
	return nil
}
