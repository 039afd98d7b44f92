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
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/municipal-ops/dispatch-board/lib/herr"
	"net/http"
)

type GetResources struct {
	board *board.Board
}

func (action GetResources) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	kind := board.Kind(req.URL.Query().Get("kind"))
	if kind != "" {
		if err := kind.Validate(); err != nil {
			herr.BadRequest("Invalid kind filter", err).From("[Kind.Validate]").SetExpectedError().WriteResponse(w)
			return
		}
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, toJSONResources(action.board.ListResources(kind)))
}
