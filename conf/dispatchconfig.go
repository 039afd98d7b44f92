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

package conf

import (
	"errors"
	"fmt"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/municipal-ops/dispatch-board/lib/redact"
	"log/slog"
	"strings"
	"time"
)

// DefaultDispatch is the base configuration used for the dispatch server.
// It gets overridden by values in a .env file, then the result of that
// gets overridden by environment variables.
func DefaultDispatch() *DispatchConfig {
	return &DispatchConfig{
		Core: ConfigCore{
			Host:              "localhost",
			Port:              8080,
			Deployment:        "dev",
			LogLevel:          "INFO",
			CacheControlShort: 5 * time.Second,
			MaxRequestBytes:   1 << 20,
		},
		Roster: DefaultRoster(),
		Simulator: Simulator{
			Enabled:  true,
			Interval: board.DefaultSimulateInterval,
			PBegin:   board.DefaultPBegin,
			PResolve: board.DefaultPResolve,
		},
		Intake: Intake{
			RatePerSecond: 10,
			Burst:         20,
			Area:          board.DefaultArea,
		},
		Reports: Reports{
			Type: ReportsStoreNone,
		},
	}
}

// DefaultRoster is the reference fleet: three ambulances, two fire units and
// two police units, all available.
func DefaultRoster() []RosterUnit {
	return []RosterUnit{
		{ID: "Ambulancia-01", Kind: string(board.KindAmbulance)},
		{ID: "Ambulancia-02", Kind: string(board.KindAmbulance)},
		{ID: "Ambulancia-03", Kind: string(board.KindAmbulance)},
		{ID: "Bomberos-01", Kind: string(board.KindFireUnit)},
		{ID: "Bomberos-02", Kind: string(board.KindFireUnit)},
		{ID: "Policia-01", Kind: string(board.KindPoliceUnit)},
		{ID: "Policia-02", Kind: string(board.KindPoliceUnit)},
	}
}

// Validate should be called after a DispatchConfig has been fully configured.
func (c *DispatchConfig) Validate() error {
	var errs []error
	errs = append(errs, DeploymentType(c.Core.Deployment).Validate())
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(c.Core.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level: %w", err))
	}
	if c.Core.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("max request bytes must be positive"))
	}
	if len(c.Roster) == 0 {
		errs = append(errs, errors.New("the roster must have at least one unit"))
	}
	if _, err := board.NewResourcePool(c.Resources()); err != nil {
		errs = append(errs, fmt.Errorf("invalid roster: %w", err))
	}
	if c.Simulator.Interval <= 0 {
		errs = append(errs, errors.New("simulator interval must be positive"))
	}
	for name, p := range map[string]float64{"begin": c.Simulator.PBegin, "resolve": c.Simulator.PResolve} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("simulator %v probability %v is outside [0, 1]", name, p))
		}
	}
	if c.Intake.RatePerSecond < 0 {
		errs = append(errs, errors.New("intake rate must not be negative"))
	}
	if c.Intake.RatePerSecond > 0 && c.Intake.Burst < 1 {
		errs = append(errs, errors.New("intake burst must be at least 1 when rate limiting is on"))
	}
	if err := c.Intake.Area.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid operational area: %w", err))
	}
	errs = append(errs, c.Reports.Type.Validate())
	if c.Reports.Type == ReportsStoreLocal {
		if c.Reports.Local.Dir == "" {
			errs = append(errs, errors.New("local reports store requires a local directory"))
		}
		c.Reports.S3 = S3Reports{}
	}
	if c.Reports.Type == ReportsStoreS3 {
		s3 := c.Reports.S3
		if s3.AWSAccessKeyID == "" || s3.AWSSecretAccessKey == "" || s3.AWSRegion == "" || s3.Bucket == "" {
			errs = append(errs, errors.New("s3 reports store requires Key ID, Secret Key, Default AWSRegion, and Bucket"))
		}
		c.Reports.Local = LocalReports{}
	}
	if c.Reports.Type == ReportsStoreNone {
		c.Reports.Local = LocalReports{}
		c.Reports.S3 = S3Reports{}
	}
	return errors.Join(errs...)
}

// Resources converts the roster for board.New.
func (c *DispatchConfig) Resources() []board.Resource {
	out := make([]board.Resource, 0, len(c.Roster))
	for _, u := range c.Roster {
		out = append(out, board.Resource{
			ID:           u.ID,
			Kind:         board.Kind(u.Kind),
			Availability: board.Availability(u.Availability),
		})
	}
	return out
}

func (c *DispatchConfig) PrintRedacted() string {
	return c.String()
}

func (c *DispatchConfig) String() string {
	b, err := redact.ToBytes(c)
	if err != nil {
		return fmt.Sprintf("unprintable config: %v", err)
	}
	return string(b)
}

type DispatchConfig struct {
	Core      ConfigCore
	Roster    []RosterUnit
	Simulator Simulator
	Intake    Intake
	Reports   Reports
}

type ReportsStoreType string
type DeploymentType string

const (
	ReportsStoreLocal        ReportsStoreType = "local"
	ReportsStoreS3           ReportsStoreType = "s3"
	ReportsStoreNone         ReportsStoreType = "none"
	DeploymentTypeDev        DeploymentType   = "dev"
	DeploymentTypeStaging    DeploymentType   = "staging"
	DeploymentTypeProduction DeploymentType   = "production"
)

func (r ReportsStoreType) Validate() error {
	switch r {
	case ReportsStoreLocal, ReportsStoreS3, ReportsStoreNone:
		return nil
	default:
		return fmt.Errorf("unknown reports store type %v", r)
	}
}

func (d DeploymentType) Validate() error {
	switch d {
	case DeploymentTypeDev, DeploymentTypeStaging, DeploymentTypeProduction:
		return nil
	default:
		return fmt.Errorf("unknown deployment type %v", d)
	}
}

type ConfigCore struct {
	Host       string
	Port       int32
	Deployment string

	// CacheControlShort is the max-age we set on read endpoints that change
	// with every board mutation, e.g. statistics. Set this to 0 to disable
	// client-side caching.
	CacheControlShort time.Duration

	// LogLevel should be one of DEBUG, INFO, WARN, or ERROR
	LogLevel string

	// MaxRequestBytes is a hard limit on request sizes that will be permitted by the API server.
	MaxRequestBytes int64
}

// RosterUnit is one configured unit. An empty Availability means available.
type RosterUnit struct {
	ID           string
	Kind         string
	Availability string
}

type Simulator struct {
	Enabled  bool
	Interval time.Duration
	PBegin   float64
	PResolve float64
	// Seed makes simulation runs reproducible. Empty means a random seed.
	Seed string
}

type Intake struct {
	// RatePerSecond limits command requests across all clients. 0 turns the limit off.
	RatePerSecond float64
	Burst         int
	Area          board.Area
	// SeedDemo loads the four reference incidents at startup.
	SeedDemo bool
}

type Reports struct {
	Type  ReportsStoreType
	Local LocalReports
	S3    S3Reports
}

type LocalReports struct {
	Dir string
}

type S3Reports struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string `redact:"true"`
	AWSRegion          string
	Bucket             string
	KeyPrefix          string
}

// ParseRoster reads a roster of the form "id:kind[:availability],...".
func ParseRoster(s string) ([]RosterUnit, error) {
	var units []RosterUnit
	var errs []error
	for entry := range strings.SplitSeq(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			errs = append(errs, fmt.Errorf("roster entry %q is not id:kind[:availability]", entry))
			continue
		}
		u := RosterUnit{
			ID:   strings.TrimSpace(parts[0]),
			Kind: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			u.Availability = strings.TrimSpace(parts[2])
		}
		units = append(units, u)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return units, nil
}
