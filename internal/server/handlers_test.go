package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"example.com/tigate/internal/report"
	"example.com/tigate/internal/teleinfo"
)

const legacyCapture = "\x02" +
	"\nADCO 031961098836 M\r" +
	"\nOPTARIF BBR( S\r" +
	"\nBBRHCJB 001478389 E\r" +
	"\nBBRHPJB 001012295 >\r" +
	"\nBBRHCJW 000134553 G\r" +
	"\nBBRHPJW 000213701 M\r" +
	"\nBBRHCJR 000025098 E\r" +
	"\nBBRHPJR 000006010 A\r" +
	"\nMOTDETAT 000000 B\r" +
	"\x03"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := NewServer(Options{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(NewRouter(s))
	t.Cleanup(ts.Close)
	return ts
}

func TestHandleDecode(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/decode", "application/octet-stream",
		strings.NewReader(legacyCapture+legacyCapture))
	if err != nil {
		t.Fatalf("POST /decode: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}

	var frames []decodedFrame
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var f decodedFrame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", sc.Text(), err)
		}
		frames = append(frames, f)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[1].FrameIndex != 1 {
		t.Errorf("FrameIndex = %d", frames[1].FrameIndex)
	}
	f, ok := frames[0].Record.Value("ADCO")
	if !ok || f.Value != "031961098836" {
		t.Errorf("ADCO = %+v, present %v", f, ok)
	}
}

func TestHandleDecodeRejects(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/decode")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/decode", "application/octet-stream", strings.NewReader("no frames here"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("garbage status = %d", resp.StatusCode)
	}
}

func TestHandleValidate(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/validate", "application/octet-stream", strings.NewReader(legacyCapture))
	if err != nil {
		t.Fatalf("POST /validate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var v report.Validation
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v.Frames != 1 || !v.Report.Summary.Pass {
		t.Errorf("validation = %+v", v)
	}
	if len(v.SourceHash) != 64 {
		t.Errorf("SourceHash = %q", v.SourceHash)
	}
}

func TestHandleValidateNDJSON(t *testing.T) {
	ts := newTestServer(t)
	// Corrupt one checksum so at least one diagnostic is emitted.
	capture := strings.Replace(legacyCapture, "MOTDETAT 000000 B", "MOTDETAT 000000 C", 1)
	resp, err := http.Post(ts.URL+"/validate?format=ndjson", "application/octet-stream", strings.NewReader(capture))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}
	lines := 0
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		lines++
	}
	if lines == 0 {
		t.Error("no diagnostics streamed")
	}
}

func TestHandleTags(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/tags")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Tags []teleinfo.TagInfo `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tags) == 0 {
		t.Fatal("no tags returned")
	}
	found := false
	for _, ti := range body.Tags {
		if ti.Tag == "SMAXSN3-1" && ti.Mode == teleinfo.ModeStandard && ti.Horodate {
			found = true
		}
	}
	if !found {
		t.Error("SMAXSN3-1 missing from tag listing")
	}
}

func TestHandleHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "ok" {
		t.Errorf("status = %q", h.Status)
	}
}
