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
	"github.com/municipal-ops/dispatch-board/lib/conv"
	"math"
	"time"
)

func toJSONIncident(inc board.Incident) dispatchjson.Incident {
	resources := inc.AssignedResources
	if resources == nil {
		resources = []string{}
	}
	return dispatchjson.Incident{
		ID:          inc.ID,
		Category:    string(inc.Category),
		Description: inc.Description,
		Location:    inc.Location,
		Coordinates: dispatchjson.Coordinates{
			Lat: inc.Coordinates.Lat,
			Lng: inc.Coordinates.Lng,
		},
		Severity:            string(inc.Severity),
		State:               string(inc.State),
		AssignedResources:   resources,
		ReportedAt:          inc.ReportedAt,
		ResponseTimeMinutes: conv.OptionalMinutes(inc.ResponseTime),
	}
}

func toJSONIncidents(incs []board.Incident) dispatchjson.Incidents {
	out := make(dispatchjson.Incidents, 0, len(incs))
	for _, inc := range incs {
		out = append(out, toJSONIncident(inc))
	}
	return out
}

func toJSONResources(resources []board.Resource) dispatchjson.Resources {
	out := make(dispatchjson.Resources, 0, len(resources))
	for _, r := range resources {
		out = append(out, dispatchjson.Resource{
			ID:           r.ID,
			Kind:         string(r.Kind),
			Availability: string(r.Availability),
		})
	}
	return out
}

func toSubmitRequest(ni dispatchjson.NewIncident) board.SubmitRequest {
	req := board.SubmitRequest{
		Category:    board.Category(ni.Category),
		Description: ni.Description,
		Location:    ni.Location,
		Severity:    board.Severity(ni.Severity),
	}
	if ni.Coordinates != nil {
		req.Coordinates = &board.Coordinates{Lat: ni.Coordinates.Lat, Lng: ni.Coordinates.Lng}
	}
	return req
}

// toJSONStatistics derives every number from the one snapshot, so they agree.
func toJSONStatistics(snap board.Snapshot) dispatchjson.Statistics {
	stats := snap.Statistics()
	out := dispatchjson.Statistics{
		Version: snap.Version,
		Counts: dispatchjson.Counts{
			Total:      stats.Counts.Total,
			Pending:    stats.Counts.Pending,
			InProgress: stats.Counts.InProgress,
			Resolved:   stats.Counts.Resolved,
		},
		CountsByCategory: make(map[string]int, len(stats.CountsByCategory)),
		Resources:        make(map[string]dispatchjson.ResourceCounts, len(stats.Resources)),
	}
	for c, n := range stats.CountsByCategory {
		out.CountsByCategory[string(c)] = n
	}
	for k, rc := range stats.Resources {
		out.Resources[string(k)] = dispatchjson.ResourceCounts{Available: rc.Available, Busy: rc.Busy}
	}
	if stats.AverageResponseTime != nil {
		avg := roundMinutes(*stats.AverageResponseTime)
		out.AverageResponseTimeMinutes = &avg
	}
	return out
}

// roundMinutes gives d in minutes, to one decimal place.
func roundMinutes(d time.Duration) float64 {
	return math.Round(d.Minutes()*10) / 10
}

func toJSONReport(snap board.Snapshot) dispatchjson.Report {
	return dispatchjson.Report{
		GeneratedAt: snap.TakenAt,
		Version:     snap.Version,
		Statistics:  toJSONStatistics(snap),
		Incidents:   toJSONIncidents(snap.Filter(board.InStates())),
		Resources:   toJSONResources(snap.Resources),
	}
}
