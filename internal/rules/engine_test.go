package rules

import (
	"os"
	"path/filepath"
	"testing"

	"example.com/tigate/internal/teleinfo"
)

func mustParse(t *testing.T, body string) *teleinfo.Record {
	t.Helper()
	rec, err := teleinfo.ParseFrame([]byte(body))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	return rec
}

const (
	legacyBody = "\nADCO 031961098836 M\r" +
		"\nOPTARIF BBR( S\r" +
		"\nBBRHCJB 001478389 E\r" +
		"\nBBRHPJB 001012295 >\r" +
		"\nBBRHCJW 000134553 G\r" +
		"\nBBRHPJW 000213701 M\r" +
		"\nBBRHCJR 000025098 E\r" +
		"\nBBRHPJR 000006010 A\r" +
		"\nMOTDETAT 000000 B\r"
	corruptBody = "\nADCO 031961098836 M\r" +
		"\nOPTARIF BBR( S\r" +
		"\nBBRHCJB 001478389 E\r" +
		"\nBBRHPJB 001012295 >\r" +
		"\nBBRHCJW 000134553 G\r" +
		"\nBBRHPJW 000213701 M\r" +
		"\nBBRHCJR 000025098 E\r" +
		"\nBBRHPJR 000006010 A\r" +
		"\nMOTDETAT 000000 C\r"
)

func TestEngineEvalPass(t *testing.T) {
	e := NewDefaultEngine()
	ctx := &Context{Source: "test", Records: []*teleinfo.Record{mustParse(t, legacyBody)}}
	diags, err := e.Eval(ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("diags = %+v, want none", diags)
	}
	rep := e.MakeAcceptance()
	if !rep.Summary.Pass || rep.Summary.Total != 0 {
		t.Errorf("acceptance = %+v", rep.Summary)
	}
}

func TestEngineEvalChecksumFailure(t *testing.T) {
	e := NewDefaultEngine()
	ctx := &Context{Source: "test", Records: []*teleinfo.Record{mustParse(t, corruptBody)}}
	diags, err := e.Eval(ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	found := false
	for _, d := range diags {
		if d.RuleId == "TI-001" && d.Tag == "MOTDETAT" && d.Severity == ERROR {
			found = true
		}
	}
	if !found {
		t.Fatalf("no TI-001 diagnostic for MOTDETAT in %+v", diags)
	}
	if rep := e.MakeAcceptance(); rep.Summary.Pass || rep.Summary.Errors == 0 {
		t.Errorf("acceptance = %+v", rep.Summary)
	}
}

func TestEngineUnknownCheck(t *testing.T) {
	rp := DefaultRulePack()
	rp.Rules = append(rp.Rules, Rule{RuleId: "TI-999", Severity: ERROR, CheckFunc: "NoSuchCheck"})
	e := NewEngine(rp)
	e.RegisterBuiltins()
	diags, err := e.Eval(&Context{Source: "test", Records: []*teleinfo.Record{mustParse(t, legacyBody)}})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	found := false
	for _, d := range diags {
		if d.RuleId == "TI-999" && d.Severity == WARN {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing WARN for unknown check in %+v", diags)
	}
}

func TestContextEnsureRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.bin")
	data := "\x02" + legacyBody + "\x03" + "noise" + "\x02" + legacyBody + "\x03"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := &Context{InputFile: path}
	if err := ctx.EnsureRecords(); err != nil {
		t.Fatalf("EnsureRecords: %v", err)
	}
	if len(ctx.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(ctx.Records))
	}
	if ctx.Source != path {
		t.Errorf("Source = %q", ctx.Source)
	}
}

func TestLoadRulePack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.json")
	body := `{"rulePackId":"custom","version":"2.0.0","profile":"site","rules":[{"ruleId":"TI-010","scope":"frame","severity":"WARN","checkFunction":"CheckRequiredTags","refs":[],"message":"m","params":{"tags":["ADCO"]}}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	rp, err := LoadRulePack(path)
	if err != nil {
		t.Fatalf("LoadRulePack: %v", err)
	}
	if rp.RulePackId != "custom" || len(rp.Rules) != 1 {
		t.Fatalf("rp = %+v", rp)
	}
	if rp.Rules[0].Params["tags"].([]any)[0].(string) != "ADCO" {
		t.Errorf("params = %+v", rp.Rules[0].Params)
	}
}
