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
	dispatchjson "github.com/municipal-ops/dispatch-board/json"
	"github.com/municipal-ops/dispatch-board/lib/herr"
	"net/http"
	"net/url"
)

type GetIncidents struct {
	board *board.Board
}

func (action GetIncidents) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getIncidents(req)
	if errHTTP != nil {
		errHTTP.From("[getIncidents]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, resp)
}

func (action GetIncidents) getIncidents(req *http.Request) (dispatchjson.Incidents, *herr.HTTPError) {
	var states []board.State
	for _, s := range queryList(req, "state") {
		state := board.State(s)
		if err := state.Validate(); err != nil {
			return nil, herr.BadRequest("Invalid state filter", err).From("[State.Validate]").SetExpectedError()
		}
		states = append(states, state)
	}
	return toJSONIncidents(action.board.ListIncidents(states...)), nil
}

type GetIncident struct {
	board *board.Board
}

func (action GetIncident) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	inc, err := action.board.GetIncident(req.PathValue("incidentID"))
	if err != nil {
		fromBoardErr(err).From("[GetIncident]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	mustWriteJSON(w, req, toJSONIncident(inc))
}

type NewIncident struct {
	board *board.Board
}

func (action NewIncident) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	inc, errHTTP := action.newIncident(req)
	if errHTTP != nil {
		errHTTP.From("[newIncident]").WriteResponse(w)
		return
	}
	location, err := url.JoinPath(apiPrefix, "incidents", inc.ID)
	if err != nil {
		herr.InternalServerError("Failed to build incident URL", err).From("[url.JoinPath]").WriteResponse(w)
		return
	}
	w.Header().Set("Dispatch-Incident-ID", inc.ID)
	w.Header().Set("Location", location)
	herr.WriteJSONResponse(w, http.StatusCreated, toJSONIncident(inc))
}

func (action NewIncident) newIncident(req *http.Request) (board.Incident, *herr.HTTPError) {
	newIncident, errHTTP := readBodyAs[dispatchjson.NewIncident](req)
	if errHTTP != nil {
		return board.Incident{}, errHTTP.From("[readBodyAs]")
	}
	inc, err := action.board.Submit(toSubmitRequest(newIncident))
	if err != nil {
		return board.Incident{}, fromBoardErr(err).From("[Submit]")
	}
	return inc, nil
}

// BeginAttention moves a pending incident to in_progress.
type BeginAttention struct {
	board *board.Board
}

func (action BeginAttention) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	inc, err := action.board.BeginAttention(req.PathValue("incidentID"))
	if err != nil {
		fromBoardErr(err).From("[BeginAttention]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, toJSONIncident(inc))
}

// ResolveIncident moves an in_progress incident to resolved.
type ResolveIncident struct {
	board *board.Board
}

func (action ResolveIncident) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	inc, err := action.board.Resolve(req.PathValue("incidentID"))
	if err != nil {
		fromBoardErr(err).From("[Resolve]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, toJSONIncident(inc))
}
