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
	"encoding/json"
	"errors"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/municipal-ops/dispatch-board/lib/herr"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

func readBodyAs[T any](req *http.Request) (T, *herr.HTTPError) {
	empty := *new(T)
	defer shut(req.Body)
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return empty, herr.RequestEntityTooLarge("Request body is too large", err).From("[io.ReadAll]")
		}
		return empty, herr.BadRequest("Failed to read request body", err).From("[io.ReadAll]")
	}
	var t T
	err = json.Unmarshal(bodyBytes, &t)
	if err != nil {
		return empty, herr.BadRequest("Failed to unmarshal request body", err).From("[Unmarshal]").SetExpectedError()
	}
	return t, nil
}

func mustWriteJSON(w http.ResponseWriter, req *http.Request, resp any) (success bool) {
	marshalled, err := json.Marshal(resp)
	if err != nil {
		herr.InternalServerError("Failed to marshal JSON", err).From("[Marshal]").WriteResponse(w)
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(marshalled)
	if err != nil {
		herr.InternalServerError("Failed to write JSON", err).From("[Write]").WriteResponse(w)
		return false
	}
	return true
}

// fromBoardErr turns an engine error into its HTTP form. Client mistakes are
// expected in normal operation, so they aren't logged as server errors.
func fromBoardErr(err error) *herr.HTTPError {
	var verr *board.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]herr.FieldProblem, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, herr.FieldProblem{Field: f.Field, Message: f.Message})
		}
		return herr.BadRequest("Invalid incident report", err).WithFields(fields...).SetExpectedError()
	case errors.Is(err, board.ErrNotFound):
		return herr.NotFound("Incident not found", err).SetExpectedError()
	case errors.Is(err, board.ErrInvalidTransition):
		var terr *board.TransitionError
		msg := "The incident is not in a state that allows this"
		if errors.As(err, &terr) {
			msg = "Cannot move incident " + terr.IncidentID + " from " + string(terr.From) + " to " + string(terr.To)
		}
		return herr.Conflict(msg, err).SetExpectedError()
	default:
		return herr.InternalServerError("The dispatch board failed", err)
	}
}

// queryList reads a query parameter that may be repeated or comma separated.
func queryList(req *http.Request, key string) []string {
	var out []string
	for _, v := range req.URL.Query()[key] {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func shut(c io.Closer) {
	err := c.Close()
	if err != nil {
		slog.Error("Failed to close Closer", "error", err)
	}
}
