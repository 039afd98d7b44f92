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
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/municipal-ops/dispatch-board/lib/rand"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

// SubmitRequest is a new incident report. Severity defaults to medium, and
// Coordinates are synthesized inside the operational area when nil.
type SubmitRequest struct {
	Category    Category     `json:"category" validate:"required,oneof=fire accident medical"`
	Description string       `json:"description" validate:"notblank,max=1000"`
	Location    string       `json:"location" validate:"notblank,max=300"`
	Severity    Severity     `json:"severity" validate:"omitempty,oneof=high medium low"`
	Coordinates *Coordinates `json:"coordinates" validate:"omitempty"`
}

// Area is the rectangle of latitude and longitude in which incidents are
// expected to occur.
type Area struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// DefaultArea is the operational area of the reference deployment.
var DefaultArea = Area{MinLat: 4.6, MaxLat: 4.7, MinLng: -74.08, MaxLng: -73.98}

func (a Area) Validate() error {
	var errs []error
	if a.MinLat < -90 || a.MaxLat > 90 || a.MinLat >= a.MaxLat {
		errs = append(errs, fmt.Errorf("invalid latitude range [%v, %v]", a.MinLat, a.MaxLat))
	}
	if a.MinLng < -180 || a.MaxLng > 180 || a.MinLng >= a.MaxLng {
		errs = append(errs, fmt.Errorf("invalid longitude range [%v, %v]", a.MinLng, a.MaxLng))
	}
	return errors.Join(errs...)
}

func (a Area) Contains(c Coordinates) bool {
	return c.Lat >= a.MinLat && c.Lat <= a.MaxLat && c.Lng >= a.MinLng && c.Lng <= a.MaxLng
}

// Float64er is a source of pseudo-random numbers in [0.0, 1.0).
// *math/rand/v2.Rand satisfies it.
type Float64er interface {
	Float64() float64
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("lat", func(fl validator.FieldLevel) bool {
		lat := fl.Field().Float()
		return lat >= -90 && lat <= 90
	})
	_ = v.RegisterValidation("lng", func(fl validator.FieldLevel) bool {
		lng := fl.Field().Float()
		return lng >= -180 && lng <= 180
	})
	return v
}

type intake struct {
	area Area
	// rngMu guards rng, which need not be safe for concurrent use
	rngMu sync.Mutex
	rng   Float64er
}

func newIntake(area Area, rng Float64er) *intake {
	if rng == nil {
		rng = rand.NewUnseeded()
	}
	return &intake{area: area, rng: rng}
}

func (in *intake) check(req SubmitRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("[validate.Struct]: %w", err)
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return verr
}

// fieldPath drops the struct name from the namespace, e.g.
// "SubmitRequest.coordinates.lat" becomes "coordinates.lat".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "lat":
		return "must be between -90 and 90"
	case "lng":
		return "must be between -180 and 180"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// coordinates returns the supplied point, or a uniformly random point inside
// the operational area. A supplied point outside the area is kept, since
// callers may report from beyond it, but it is logged.
func (in *intake) coordinates(supplied *Coordinates) Coordinates {
	if supplied != nil {
		if !in.area.Contains(*supplied) {
			slog.Warn("Reported coordinates are outside the operational area",
				"lat", supplied.Lat,
				"lng", supplied.Lng,
			)
		}
		return *supplied
	}
	in.rngMu.Lock()
	defer in.rngMu.Unlock()
	return Coordinates{
		Lat: in.area.MinLat + in.rng.Float64()*(in.area.MaxLat-in.area.MinLat),
		Lng: in.area.MinLng + in.rng.Float64()*(in.area.MaxLng-in.area.MinLng),
	}
}

// Submit validates a new incident report and admits it as pending, with the
// next sequential ID. The new incident is the most recent on the board.
func (b *Board) Submit(req SubmitRequest) (Incident, error) {
	if err := b.intake.check(req); err != nil {
		return Incident{}, err
	}
	severity := req.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	coords := b.intake.coordinates(req.Coordinates)

	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	inc := b.store.insert(Incident{
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Coordinates: coords,
		Severity:    severity,
		ReportedAt:  now,
	})
	b.commit(ChangeCreated, inc.ID, now)
	slog.Info("Incident reported",
		"incident", inc.ID,
		"category", inc.Category,
		"severity", inc.Severity,
		"location", inc.Location,
	)
	return inc, nil
}
