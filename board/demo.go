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

import "fmt"

type demoIncident struct {
	req   SubmitRequest
	state State
}

var demoIncidents = []demoIncident{
	{
		req: SubmitRequest{
			Category:    CategoryFire,
			Description: "Incendio en edificio residencial - 3er piso",
			Location:    "Calle 45 #23-67, Centro",
			Severity:    SeverityHigh,
			Coordinates: &Coordinates{Lat: 4.6097, Lng: -74.0817},
		},
		state: StateInProgress,
	},
	{
		req: SubmitRequest{
			Category:    CategoryAccident,
			Description: "Accidente de tránsito con heridos",
			Location:    "Av. Caracas con Calle 72",
			Severity:    SeverityHigh,
			Coordinates: &Coordinates{Lat: 4.6533, Lng: -74.0636},
		},
		state: StatePending,
	},
	{
		req: SubmitRequest{
			Category:    CategoryMedical,
			Description: "Emergencia médica - Infarto",
			Location:    "Centro Comercial Andino",
			Severity:    SeverityHigh,
			Coordinates: &Coordinates{Lat: 4.6692, Lng: -74.0563},
		},
		state: StateInProgress,
	},
	{
		req: SubmitRequest{
			Category:    CategoryAccident,
			Description: "Choque menor sin heridos",
			Location:    "Calle 26 con Carrera 7",
			Severity:    SeverityLow,
			Coordinates: &Coordinates{Lat: 4.6126, Lng: -74.0705},
		},
		state: StateResolved,
	},
}

// SeedDemo loads the reference incidents through the regular commands, so
// their units and response times are bookkept like any other incident.
func SeedDemo(b *Board) error {
	for _, d := range demoIncidents {
		inc, err := b.Submit(d.req)
		if err != nil {
			return fmt.Errorf("[Submit]: %w", err)
		}
		if d.state == StatePending {
			continue
		}
		if _, err = b.BeginAttention(inc.ID); err != nil {
			return fmt.Errorf("[BeginAttention]: %w", err)
		}
		if d.state == StateInProgress {
			continue
		}
		if _, err = b.Resolve(inc.ID); err != nil {
			return fmt.Errorf("[Resolve]: %w", err)
		}
	}
	return nil
}
