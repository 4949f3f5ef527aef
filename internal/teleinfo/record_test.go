package teleinfo

import (
	"reflect"
	"testing"
)

func parseFixture(t *testing.T, frame string) *Record {
	t.Helper()
	rec, err := ParseFrame([]byte(frame[1 : len(frame)-1]))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	return rec
}

func TestMessageType(t *testing.T) {
	if got := parseFixture(t, standardFrame()).MessageType(); got != MessageNormal {
		t.Errorf("standard: %v, want normal", got)
	}
	if got := parseFixture(t, legacyFrame()).MessageType(); got != MessageNormal {
		t.Errorf("legacy with OPTARIF: %v, want normal", got)
	}
	short := parseFixture(t, frameOf([]string{"ADCO 031961098836 M", "IINST 001 X"}))
	if got := short.MessageType(); got != MessageShort {
		t.Errorf("legacy without OPTARIF: %v, want short", got)
	}
}

func TestMeterType(t *testing.T) {
	if got := parseFixture(t, legacyFrame()).MeterType(); got != MeterMonoPhase {
		t.Errorf("legacy without IINST1: %v, want monophase", got)
	}
	if got := parseFixture(t, standardFrame()).MeterType(); got != MeterTriPhase {
		t.Errorf("standard with SINSTS1: %v, want triphase", got)
	}
}

func TestCurrentIndex(t *testing.T) {
	if got := parseFixture(t, legacyFrame()).CurrentIndex(); got != "BBRHPJB" {
		t.Errorf("legacy: %q, want BBRHPJB", got)
	}
	if got := parseFixture(t, standardFrame()).CurrentIndex(); got != "EASF03" {
		t.Errorf("standard: %q, want EASF03", got)
	}
}

func TestBillingIndices(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  []string
	}{
		{"bbr", legacyFrame(), []string{"BBRHCJB", "BBRHPJB", "BBRHCJR", "BBRHPJR", "BBRHCJW", "BBRHPJW"}},
		{"standard", standardFrame(), []string{
			"EASF01", "EASF02", "EASF03", "EASF04", "EASF05",
			"EASF06", "EASF07", "EASF08", "EASF09", "EASF10",
		}},
	}
	for _, tc := range cases {
		got := parseFixture(t, tc.frame).BillingIndices()
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValues(t *testing.T) {
	rec := parseFixture(t, standardFrame())
	got := rec.Values([]string{"EASF01", "EASF02", "EASF06"})
	want := []TagValue{
		{Tag: "EASF01", Value: "004855593", Present: true},
		{Tag: "EASF02", Present: false},
		{Tag: "EASF06", Value: "000706363", Present: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Values = %v, want %v", got, want)
	}
}
