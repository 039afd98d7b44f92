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

package cmd

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/municipal-ops/dispatch-board/conf"
	"github.com/municipal-ops/dispatch-board/lib/conv"
	"log/slog"
	"os"
	"strings"
	"time"
)

// mustApplyEnvConfig reads in the .env file and ENV variables and applies those to baseCfg.
func mustApplyEnvConfig(baseCfg *conf.DispatchConfig, envFileName string) *conf.DispatchConfig {
	err := godotenv.Load(envFileName)

	if err != nil && !os.IsNotExist(err) {
		must(err)
	}
	if os.IsNotExist(err) {
		// if it's not the default
		if envFileName != envFileDefaultName {
			must(fmt.Errorf("envfile '%v' was set by the caller, but the file was not found", envFileName))
		}
		slog.Info("No .env file found. Carrying on with DispatchConfig defaults and environment variable overrides")
	}

	if v, ok := lookupEnv("DISPATCH_HOSTNAME"); ok {
		baseCfg.Core.Host = v
	}
	if v, ok := lookupEnv("DISPATCH_PORT"); ok {
		baseCfg.Core.Port, err = conv.ParseInt32(v)
		must(err)
	}
	if v, ok := lookupEnv("DISPATCH_DEPLOYMENT"); ok {
		baseCfg.Core.Deployment = strings.ToLower(v)
	}
	if v, ok := lookupEnv("DISPATCH_CACHE_CONTROL_SHORT"); ok {
		dur, err := time.ParseDuration(v)
		must(err)
		baseCfg.Core.CacheControlShort = dur
	}
	if v, ok := lookupEnv("DISPATCH_LOG_LEVEL"); ok {
		baseCfg.Core.LogLevel = v
	}
	if v, ok := lookupEnv("DISPATCH_MAX_REQUEST_BYTES"); ok {
		baseCfg.Core.MaxRequestBytes, err = conv.ParseInt64(v)
		must(err)
	}
	if v, ok := lookupEnv("DISPATCH_ROSTER"); ok {
		baseCfg.Roster, err = conf.ParseRoster(v)
		must(err)
	}

	if v, ok := lookupEnv("DISPATCH_SIMULATOR_ENABLED"); ok {
		baseCfg.Simulator.Enabled = strings.EqualFold(v, "true")
	}
	if v, ok := lookupEnv("DISPATCH_SIMULATOR_INTERVAL"); ok {
		// Either a bare number of seconds or a duration, e.g. "5" or "1m30s".
		baseCfg.Simulator.Interval, err = conv.ParseDuration(v)
		must(err)
	}
	if v, ok := lookupEnv("DISPATCH_SIMULATOR_P_BEGIN"); ok {
		baseCfg.Simulator.PBegin, err = conv.ParseProbability(v)
		must(err)
	}
	if v, ok := lookupEnv("DISPATCH_SIMULATOR_P_RESOLVE"); ok {
		baseCfg.Simulator.PResolve, err = conv.ParseProbability(v)
		must(err)
	}
	if v, ok := lookupEnv("DISPATCH_SIMULATOR_SEED"); ok {
		baseCfg.Simulator.Seed = v
	}

	if v, ok := lookupEnv("DISPATCH_INTAKE_RATE"); ok {
		baseCfg.Intake.RatePerSecond, err = conv.ParseFloat(v)
		must(err)
	}
	if v, ok := lookupEnv("DISPATCH_INTAKE_BURST"); ok {
		burst, err := conv.ParseInt32(v)
		must(err)
		baseCfg.Intake.Burst = int(burst)
	}
	if v, ok := lookupEnv("DISPATCH_SEED_DEMO"); ok {
		baseCfg.Intake.SeedDemo = strings.EqualFold(v, "true")
	}

	if v, ok := lookupEnv("DISPATCH_REPORTS_STORE"); ok {
		baseCfg.Reports.Type = conf.ReportsStoreType(strings.ToLower(v))
	}
	if v, ok := lookupEnv("DISPATCH_REPORTS_LOCAL_DIR"); ok {
		baseCfg.Reports.Local.Dir = v
	}
	// These three AWS env vars use the standard names, hence no "DISPATCH_" prefix.
	if v, ok := lookupEnv("AWS_ACCESS_KEY_ID"); ok {
		baseCfg.Reports.S3.AWSAccessKeyID = v
	}
	if v, ok := lookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
		baseCfg.Reports.S3.AWSSecretAccessKey = v
	}
	if v, ok := lookupEnv("AWS_REGION"); ok {
		baseCfg.Reports.S3.AWSRegion = v
	}
	if v, ok := lookupEnv("DISPATCH_REPORTS_S3_BUCKET"); ok {
		baseCfg.Reports.S3.Bucket = v
	}
	if v, ok := lookupEnv("DISPATCH_REPORTS_S3_KEY_PREFIX"); ok {
		baseCfg.Reports.S3.KeyPrefix = v
	}

	return baseCfg
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	// When doing `docker run --env-file .env`, Docker passes in vars without removing
	// the double-quotes, e.g. DISPATCH_HOSTNAME="localhost" would actually get passed into
	// the program with the double-quotes in place.
	// https://github.com/docker/cli/issues/3630
	if strings.HasPrefix(v, "\"") && strings.HasSuffix(v, "\"") {
		v = v[1 : len(v)-1]
	}
	return v, true
}
