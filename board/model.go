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

package board

import (
	"fmt"
	"slices"
	"time"
)

type Category string

const (
	CategoryFire     Category = "fire"
	CategoryAccident Category = "accident"
	CategoryMedical  Category = "medical"
)

// Categories lists every known Category, in display order.
var Categories = []Category{CategoryFire, CategoryAccident, CategoryMedical}

func (c Category) Validate() error {
	if !slices.Contains(Categories, c) {
		return fmt.Errorf("unknown incident category %q", c)
	}
	return nil
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) Validate() error {
	if !slices.Contains(Severities, s) {
		return fmt.Errorf("unknown incident severity %q", s)
	}
	return nil
}

type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateResolved   State = "resolved"
)

var States = []State{StatePending, StateInProgress, StateResolved}

func (s State) Validate() error {
	if !slices.Contains(States, s) {
		return fmt.Errorf("unknown incident state %q", s)
	}
	return nil
}

type Kind string

const (
	KindAmbulance  Kind = "ambulance"
	KindFireUnit   Kind = "fire_unit"
	KindPoliceUnit Kind = "police_unit"
)

// Kinds is in the order resources are listed.
var Kinds = []Kind{KindAmbulance, KindFireUnit, KindPoliceUnit}

func (k Kind) Validate() error {
	if !slices.Contains(Kinds, k) {
		return fmt.Errorf("unknown resource kind %q", k)
	}
	return nil
}

func (k Kind) rank() int {
	return slices.Index(Kinds, k)
}

type Availability string

const (
	Available Availability = "available"
	Busy      Availability = "busy"
)

func (a Availability) Validate() error {
	switch a {
	case Available, Busy:
		return nil
	default:
		return fmt.Errorf("unknown resource availability %q", a)
	}
}

type Coordinates struct {
	Lat float64 `json:"lat" validate:"lat"`
	Lng float64 `json:"lng" validate:"lng"`
}

// Incident is a value copy of an incident held by the Board. Mutating a copy
// has no effect on the Board.
type Incident struct {
	ID                string
	Category          Category
	Description       string
	Location          string
	Coordinates       Coordinates
	Severity          Severity
	State             State
	AssignedResources []string
	ReportedAt        time.Time

	// ResponseTime is set, in whole minutes, when the incident leaves the
	// pending state, and never changes afterward.
	ResponseTime *time.Duration

	// seq is the creation order. It backs the INC-NNN identifier and breaks
	// ordering ties between incidents reported at the same instant.
	seq int64
}

// Seq returns the incident's position in creation order, starting at 1.
func (inc Incident) Seq() int64 {
	return inc.seq
}

func (inc Incident) clone() Incident {
	inc.AssignedResources = slices.Clone(inc.AssignedResources)
	if inc.ResponseTime != nil {
		rt := *inc.ResponseTime
		inc.ResponseTime = &rt
	}
	return inc
}

type Resource struct {
	ID           string
	Kind         Kind
	Availability Availability
}

func incidentID(seq int64) string {
	return fmt.Sprintf("INC-%03d", seq)
}
