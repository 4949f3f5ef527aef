package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/tigate/internal/common"
	"example.com/tigate/internal/report"
	"example.com/tigate/internal/rules"
	"example.com/tigate/internal/teleinfo"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.Logf("write response: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		httpError(w, http.StatusRequestEntityTooLarge, "read body: %v", err)
		return nil, false
	}
	if len(body) == 0 {
		httpError(w, http.StatusBadRequest, "empty body")
		return nil, false
	}
	return body, true
}

// decodeAll pulls every frame out of a capture. Bodies that do not parse are
// counted but do not abort the stream.
func (s *Server) decodeAll(data []byte) ([]*teleinfo.Record, int) {
	rd := bytes.NewReader(data)
	var records []*teleinfo.Record
	parseErrs := 0
	var leftover []byte
	for {
		rest, rec, err := teleinfo.Decode(rd, leftover)
		leftover = rest
		if rec != nil {
			s.metrics.AddFrame(0, rec.Valid)
			records = append(records, rec)
		}
		if err != nil {
			if errors.Is(err, teleinfo.ErrParse) {
				parseErrs++
				s.metrics.IncParseError()
				continue
			}
			break
		}
	}
	s.metrics.AddBytes(int64(len(data)))
	return records, parseErrs
}

type decodedFrame struct {
	FrameIndex int              `json:"frameIndex"`
	Record     *teleinfo.Record `json:"record"`
}

// handleDecode streams the decoded frames of an uploaded capture as NDJSON.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	records, parseErrs := s.decodeAll(body)
	if len(records) == 0 {
		httpError(w, http.StatusUnprocessableEntity, "no frames decoded (%d parse errors)", parseErrs)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	nd := NewNDJSONWriter(w)
	for i, rec := range records {
		if err := nd.WriteObject(decodedFrame{FrameIndex: i, Record: rec}); err != nil {
			common.Logf("decode stream aborted: %v", err)
			return
		}
	}
}

// handleValidate decodes a capture and runs the configured rule pack over
// it. The default response is a validation document; format=ndjson streams
// the diagnostics instead.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	records, _ := s.decodeAll(body)
	if len(records) == 0 {
		httpError(w, http.StatusUnprocessableEntity, "no frames decoded")
		return
	}

	engine := s.newEngine()
	diags, err := engine.Eval(&rules.Context{Source: "upload", Records: records})
	if err != nil {
		httpError(w, http.StatusInternalServerError, "evaluate rules: %v", err)
		return
	}

	if r.URL.Query().Get("format") == "ndjson" {
		w.Header().Set("Content-Type", "application/x-ndjson")
		nd := NewNDJSONWriter(w)
		for _, d := range diags {
			if err := nd.WriteObject(d); err != nil {
				common.Logf("validate stream aborted: %v", err)
				return
			}
		}
		return
	}

	v := report.Validation{
		Source:     "upload",
		SourceHash: fmt.Sprintf("%x", sha256.Sum256(body)),
		SourceSize: int64(len(body)),
		Frames:     len(records),
		Report:     engine.MakeAcceptance(),
	}
	writeJSON(w, http.StatusOK, v)
}

// handleTags lists every known tag with its mode and horodate flag.
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Tags []teleinfo.TagInfo `json:"tags"`
	}{Tags: teleinfo.Tags()})
}

type healthResponse struct {
	Status      string  `json:"status"`
	Uptime      string  `json:"uptime"`
	Frames      int64   `json:"frames"`
	Invalid     int64   `json:"invalid"`
	ParseErrors int64   `json:"parseErrors"`
	Bytes       int64   `json:"bytes"`
	FramesPerS  float64 `json:"framesPerSecond"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	snap := s.metrics.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Uptime:      snap.Duration.Round(time.Second).String(),
		Frames:      snap.Frames,
		Invalid:     snap.Invalid,
		ParseErrors: snap.ParseErrors,
		Bytes:       snap.Bytes,
		FramesPerS:  snap.FramesPerSecond(),
	})
}
