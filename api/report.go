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
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/municipal-ops/dispatch-board/board"
	dispatchjson "github.com/municipal-ops/dispatch-board/json"
	"github.com/municipal-ops/dispatch-board/lib/conv"
	"github.com/municipal-ops/dispatch-board/lib/export"
	"github.com/municipal-ops/dispatch-board/lib/herr"
	"github.com/municipal-ops/dispatch-board/lib/rand"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	reportFormatJSON = "json"
	reportFormatCSV  = "csv"
)

var reportContentTypes = map[string]string{
	reportFormatJSON: "application/json",
	reportFormatCSV:  "text/csv; charset=utf-8",
}

var csvHeader = []string{
	"id", "category", "severity", "state", "description", "location",
	"lat", "lng", "reported_at", "response_time_minutes", "assigned_resources",
}

// NewReport exports the board as of one snapshot into the report sink.
type NewReport struct {
	board *board.Board
	sink  export.Sink
}

func (action NewReport) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	stored, errHTTP := action.newReport(req)
	if errHTTP != nil {
		errHTTP.From("[newReport]").WriteResponse(w)
		return
	}
	w.Header().Set("Location", stored.URL)
	herr.WriteJSONResponse(w, http.StatusCreated, stored)
}

func (action NewReport) newReport(req *http.Request) (dispatchjson.StoredReport, *herr.HTTPError) {
	var empty dispatchjson.StoredReport
	if action.sink == nil {
		return empty, herr.NotFound("Report export is not enabled", nil).SetExpectedError()
	}
	format := req.URL.Query().Get("format")
	if format == "" {
		format = reportFormatJSON
	}
	contentType, ok := reportContentTypes[format]
	if !ok {
		return empty, herr.BadRequest("Report format must be json or csv", fmt.Errorf("unknown format %q", format)).SetExpectedError()
	}

	snap := action.board.Snapshot()
	report := toJSONReport(snap)
	var body []byte
	var err error
	if format == reportFormatCSV {
		body, err = reportCSV(report)
	} else {
		body, err = json.Marshal(report)
	}
	if err != nil {
		return empty, herr.InternalServerError("Failed to encode report", err).From("[encode]")
	}

	name := reportName(snap.TakenAt, snap.Version, format)
	if err = action.sink.Put(req.Context(), name, contentType, bytes.NewReader(body)); err != nil {
		return empty, herr.InternalServerError("Failed to store report", err).From("[Put]")
	}
	location, err := url.JoinPath(apiPrefix, "reports", name)
	if err != nil {
		return empty, herr.InternalServerError("Failed to build report URL", err).From("[url.JoinPath]")
	}
	return dispatchjson.StoredReport{
		Name:    name,
		Format:  format,
		Version: snap.Version,
		URL:     location,
	}, nil
}

type GetReport struct {
	sink export.Sink
}

func (action GetReport) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("reportName")
	file, errHTTP := action.getReport(req, name)
	if errHTTP != nil {
		errHTTP.From("[getReport]").WriteResponse(w)
		return
	}
	if closer, ok := file.(io.Closer); ok {
		defer shut(closer)
	}
	if strings.HasSuffix(name, "."+reportFormatCSV) {
		w.Header().Set("Content-Type", reportContentTypes[reportFormatCSV])
	} else {
		w.Header().Set("Content-Type", reportContentTypes[reportFormatJSON])
	}
	http.ServeContent(w, req, name, time.Time{}, file)
}

func (action GetReport) getReport(req *http.Request, name string) (io.ReadSeeker, *herr.HTTPError) {
	if action.sink == nil {
		return nil, herr.NotFound("Report export is not enabled", nil).SetExpectedError()
	}
	file, err := action.sink.Get(req.Context(), name)
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			return nil, herr.NotFound("Report not found", err).SetExpectedError()
		}
		return nil, herr.InternalServerError("Failed to fetch report", err).From("[Get]")
	}
	return file, nil
}

func reportName(at time.Time, version uint64, format string) string {
	return fmt.Sprintf("board-%v-v%v-%v.%v",
		at.UTC().Format("20060102T150405Z"), version, rand.NonCryptoText(6), format)
}

// reportCSV writes one row per incident.
func reportCSV(report dispatchjson.Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	cw := csv.NewWriter(buf)
	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("[csv.Write]: %w", err)
	}
	for _, inc := range report.Incidents {
		responseTime := ""
		if inc.ResponseTimeMinutes != nil {
			responseTime = conv.FormatInt(*inc.ResponseTimeMinutes)
		}
		err := cw.Write([]string{
			inc.ID,
			inc.Category,
			inc.Severity,
			inc.State,
			inc.Description,
			inc.Location,
			strconv.FormatFloat(inc.Coordinates.Lat, 'f', 6, 64),
			strconv.FormatFloat(inc.Coordinates.Lng, 'f', 6, 64),
			inc.ReportedAt.UTC().Format(time.RFC3339),
			responseTime,
			strings.Join(inc.AssignedResources, ";"),
		})
		if err != nil {
			return nil, fmt.Errorf("[csv.Write]: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("[csv.Flush]: %w", err)
	}
	return buf.Bytes(), nil
}
