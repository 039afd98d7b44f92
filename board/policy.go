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

// DispatchPolicy decides which resource kinds an incident asks the pool for
// when it begins attention. The Board makes one reservation attempt per kind
// returned, in order.
type DispatchPolicy interface {
	KindsFor(c Category) []Kind
}

// PrimaryKindPolicy requests a single unit of the category's primary kind:
// fire units for fires, ambulances for accidents and medical emergencies.
type PrimaryKindPolicy struct{}

func (PrimaryKindPolicy) KindsFor(c Category) []Kind {
	switch c {
	case CategoryFire:
		return []Kind{KindFireUnit}
	case CategoryAccident, CategoryMedical:
		return []Kind{KindAmbulance}
	default:
		return nil
	}
}

// PolicyFunc adapts a function to a DispatchPolicy.
type PolicyFunc func(c Category) []Kind

func (f PolicyFunc) KindsFor(c Category) []Kind {
	return f(c)
}
