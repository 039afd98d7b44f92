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

package json

import (
	"time"
)

type Resources []Resource

type Resource struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Availability string `json:"availability"`
}

type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

type ResourceCounts struct {
	Available int `json:"available"`
	Busy      int `json:"busy"`
}

type Statistics struct {
	// Version is the board version the numbers were computed at.
	Version          uint64         `json:"version"`
	Counts           Counts         `json:"counts"`
	CountsByCategory map[string]int `json:"counts_by_category"`
	// AverageResponseTimeMinutes is null while no incident has been attended.
	AverageResponseTimeMinutes *float64                  `json:"average_response_time_minutes"`
	Resources                  map[string]ResourceCounts `json:"resources"`
}

// Report is a point-in-time export of the whole board.
type Report struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Version     uint64     `json:"version"`
	Statistics  Statistics `json:"statistics"`
	Incidents   Incidents  `json:"incidents"`
	Resources   Resources  `json:"resources"`
}

// StoredReport tells where an exported report can be fetched from.
type StoredReport struct {
	Name    string `json:"name"`
	Format  string `json:"format"`
	Version uint64 `json:"version"`
	URL     string `json:"url"`
}

// Change is one entry of the event stream.
type Change struct {
	Seq        uint64    `json:"seq"`
	Type       string    `json:"type"`
	IncidentID string    `json:"incident_id,omitempty"`
	At         time.Time `json:"at,omitzero"`
}
