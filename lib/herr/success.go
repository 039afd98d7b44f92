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

package herr

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSONResponse writes v as a JSON body with the given status code.
func WriteJSONResponse(w http.ResponseWriter, code int, v any) {
	marshalled, err := json.Marshal(v)
	if err != nil {
		InternalServerError("Failed to marshal response", err).From("[json.Marshal]").WriteResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(marshalled); err != nil {
		slog.Error("Failed to write response body", "err", err)
	}
}

// WriteOKResponse writes a status 200 (OK) HTTP response with a text/plain body.
func WriteOKResponse(w http.ResponseWriter, text string) {
	http.Error(w, text, http.StatusOK)
}
