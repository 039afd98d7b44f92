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

// Package json has the wire shapes of the dispatch API. Import it as
// dispatchjson, to keep it apart from encoding/json.
package json

import (
	"time"
)

type Incidents []Incident

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Incident struct {
	ID                string      `json:"id"`
	Category          string      `json:"category"`
	Description       string      `json:"description"`
	Location          string      `json:"location"`
	Coordinates       Coordinates `json:"coordinates"`
	Severity          string      `json:"severity"`
	State             string      `json:"state"`
	AssignedResources []string    `json:"assigned_resources"`
	ReportedAt        time.Time   `json:"reported_at"`
	// ResponseTimeMinutes is null until attention begins.
	ResponseTimeMinutes *int64 `json:"response_time_minutes"`
}

// NewIncident is the body of an incident report. Severity and Coordinates
// are optional.
type NewIncident struct {
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Severity    string       `json:"severity,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}
