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
	"fmt"
	"github.com/municipal-ops/dispatch-board/board"
	"github.com/municipal-ops/dispatch-board/conf"
	"github.com/municipal-ops/dispatch-board/lib/export"
	"github.com/municipal-ops/dispatch-board/lib/herr"
	"golang.org/x/time/rate"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"
)

const apiPrefix = "/dispatch/api"

// AddToMux registers the dispatch API. sink may be nil, in which case report
// export answers 404.
func AddToMux(
	mux *http.ServeMux,
	es *EventSourcerer,
	cfg *conf.DispatchConfig,
	b *board.Board,
	sink export.Sink,
) *http.ServeMux {
	if mux == nil {
		mux = http.NewServeMux()
	}

	// commands share one limiter, so the simulator's pace can't be drowned out
	var limiter *rate.Limiter
	if cfg.Intake.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Intake.RatePerSecond), cfg.Intake.Burst)
	}

	mux.Handle("GET "+apiPrefix+"/incidents",
		Adapt(
			GetIncidents{b},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST "+apiPrefix+"/incidents",
		Adapt(
			NewIncident{b},
			RecoverFromPanic(),
			LogRequest(),
			LimitRate(limiter),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET "+apiPrefix+"/incidents/{incidentID}",
		Adapt(
			GetIncident{b},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST "+apiPrefix+"/incidents/{incidentID}/begin",
		Adapt(
			BeginAttention{b},
			RecoverFromPanic(),
			LogRequest(),
			LimitRate(limiter),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST "+apiPrefix+"/incidents/{incidentID}/resolve",
		Adapt(
			ResolveIncident{b},
			RecoverFromPanic(),
			LogRequest(),
			LimitRate(limiter),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET "+apiPrefix+"/resources",
		Adapt(
			GetResources{b},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET "+apiPrefix+"/statistics",
		Adapt(
			NewGetStatistics(b, cfg.Core.CacheControlShort),
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST "+apiPrefix+"/reports",
		Adapt(
			NewReport{b, sink},
			RecoverFromPanic(),
			LogRequest(),
			LimitRate(limiter),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET "+apiPrefix+"/reports/{reportName}",
		Adapt(
			GetReport{sink},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET "+apiPrefix+"/eventsource",
		Adapt(
			es.Server.Handler(EventSourceChannel),
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	AddBasicHandlers(mux)
	return mux
}

// AddBasicHandlers registers the endpoints that don't touch the board.
func AddBasicHandlers(mux *http.ServeMux) *http.ServeMux {
	if mux == nil {
		mux = http.NewServeMux()
	}
	mux.HandleFunc("GET /",
		func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/" {
				herr.NotFound("No such endpoint", nil).SetExpectedError().WriteResponse(w)
				return
			}
			herr.WriteOKResponse(w, "Dispatch")
		},
	)

	mux.HandleFunc("GET "+apiPrefix+"/ping",
		func(w http.ResponseWriter, req *http.Request) {
			herr.WriteOKResponse(w, "ack")
		},
	)

	mux.HandleFunc("GET "+apiPrefix+"/debug/buildinfo",
		func(w http.ResponseWriter, req *http.Request) {
			bi := buildInfo()
			w.Header().Set("Cache-Control", "no-cache")
			herr.WriteOKResponse(w, bi.String())
		},
	)
	return mux
}

var buildInfo = sync.OnceValue[debug.BuildInfo](func() debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		return *bi
	}
	// These values are only informational, so an empty struct will do.
	slog.Info("Build info was unavailable, so an empty placeholder will be used instead")
	return debug.BuildInfo{}
})

type Adapter func(http.Handler) http.Handler

// responseWriter is a wrapper around http.ResponseWriter that lets us
// capture details about the response.
type responseWriter struct {
	http.ResponseWriter
	http.Flusher
	code int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.code = code
	rw.ResponseWriter.WriteHeader(code)
}

func LimitRequestBytes(maxRequestBytes int64) Adapter {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, maxRequestBytes)
	}
}

// LimitRate turns requests away with a 429 once limiter runs dry. A nil
// limiter lets everything through.
func LimitRate(limiter *rate.Limiter) Adapter {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				herr.TooManyRequests("Too many requests, slow down", nil).
					From("[LimitRate]").
					SetExpectedError().
					WriteResponse(w)
				slog.Warn("Rate limit exceeded", "method", r.Method, "path", r.URL.Path, "remote-addr", r.RemoteAddr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func LogRequest() Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			flusher, _ := w.(http.Flusher)
			writ := &responseWriter{w, flusher, http.StatusOK}

			next.ServeHTTP(writ, r)

			durationMS := float64(time.Since(start).Microseconds()) / 1000.0
			slog.Debug(fmt.Sprintf("Served request for: %v %v ", r.Method, r.URL.Path),
				"duration", fmt.Sprintf("%.3fms", durationMS),
				"method", r.Method,
				"code", writ.code,
				"remote-addr", r.RemoteAddr,
				"build", buildInfo().Main.Version,
			)
		})
	}
}

func RecoverFromPanic() Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					slog.Error("Recovered from panic", "err", err)
					debug.PrintStack()
					http.Error(w, "The server malfunctioned", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func Adapt(handler http.Handler, adapters ...Adapter) http.Handler {
	for i := range adapters {
		adapter := adapters[len(adapters)-1-i] // range in reverse
		handler = adapter(handler)
	}
	return handler
}
