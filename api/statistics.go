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
	"context"
	"fmt"
	"github.com/municipal-ops/dispatch-board/board"
	dispatchjson "github.com/municipal-ops/dispatch-board/json"
	"github.com/municipal-ops/dispatch-board/lib/cache"
	"github.com/municipal-ops/dispatch-board/lib/herr"
	"net/http"
	"time"
)

// statisticsTTL bounds how long a quiet board serves the same numbers. Any
// mutation makes them stale sooner, see GetStatistics.
const statisticsTTL = time.Minute

type GetStatistics struct {
	board             *board.Board
	cache             *cache.InMemory[dispatchjson.Statistics]
	cacheControlShort time.Duration
}

func NewGetStatistics(b *board.Board, cacheControlShort time.Duration) GetStatistics {
	return GetStatistics{
		board: b,
		cache: cache.New[dispatchjson.Statistics](statisticsTTL, func(context.Context) (dispatchjson.Statistics, error) {
			return toJSONStatistics(b.Snapshot()), nil
		}),
		cacheControlShort: cacheControlShort,
	}
}

func (action GetStatistics) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	stats, errHTTP := action.getStatistics(req)
	if errHTTP != nil {
		errHTTP.From("[getStatistics]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%v, private", action.cacheControlShort.Milliseconds()/1000))
	mustWriteJSON(w, req, stats)
}

func (action GetStatistics) getStatistics(req *http.Request) (dispatchjson.Statistics, *herr.HTTPError) {
	stats, err := action.cache.Get(req.Context())
	if err != nil {
		return dispatchjson.Statistics{}, herr.InternalServerError("Failed to compute statistics", err).From("[cache.Get]")
	}
	// The board only ever moves forward, so an older version means a change
	// happened since the numbers were cached.
	if stats.Version < action.board.Version() {
		action.cache.Invalidate()
		stats, err = action.cache.Get(req.Context())
		if err != nil {
			return dispatchjson.Statistics{}, herr.InternalServerError("Failed to compute statistics", err).From("[cache.Get]")
		}
	}
	return *stats, nil
}
