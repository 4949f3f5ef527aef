package rules

import (
	"fmt"
	"time"

	"example.com/tigate/internal/teleinfo"
)

func (e *Engine) RegisterBuiltins() {
	e.Register("CheckFrameChecksums", CheckFrameChecksums)
	e.Register("CheckRequiredTags", CheckRequiredTags)
	e.Register("CheckAddressStable", CheckAddressStable)
	e.Register("CheckModeStable", CheckModeStable)
	e.Register("CheckHorodatePlausible", CheckHorodatePlausible)
	e.Register("CheckIndicesPresent", CheckIndicesPresent)
}

func diag(ctx *Context, rule Rule, frame int, tag, msg string) Diagnostic {
	return Diagnostic{
		Ts:         time.Now(),
		Source:     ctx.Source,
		FrameIndex: frame,
		Tag:        tag,
		RuleId:     rule.RuleId,
		Severity:   rule.Severity,
		Message:    msg,
		Refs:       rule.Refs,
	}
}

// CheckFrameChecksums flags every frame whose checksum verification failed.
func CheckFrameChecksums(ctx *Context, rule Rule) ([]Diagnostic, error) {
	var out []Diagnostic
	for i, rec := range ctx.Records {
		if rec.Valid {
			continue
		}
		for tag, f := range rec.Fields {
			if !f.VerifyChecksum(rec.Mode) {
				out = append(out, diag(ctx, rule, i, tag,
					fmt.Sprintf("checksum mismatch on %s", tag)))
			}
		}
	}
	return out, nil
}

// CheckRequiredTags ensures each frame carries the tags that every meter of
// its generation must broadcast. Params may override with a "tags" list.
func CheckRequiredTags(ctx *Context, rule Rule) ([]Diagnostic, error) {
	var out []Diagnostic
	for i, rec := range ctx.Records {
		for _, tag := range requiredTags(rec.Mode, rule) {
			if _, ok := rec.Fields[tag]; !ok {
				out = append(out, diag(ctx, rule, i, tag,
					fmt.Sprintf("required tag %s missing", tag)))
			}
		}
	}
	return out, nil
}

func requiredTags(mode teleinfo.Mode, rule Rule) []string {
	if raw, ok := rule.Params["tags"].([]any); ok {
		var tags []string
		for _, v := range raw {
			if s, ok := v.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	if mode == teleinfo.ModeStandard {
		return []string{"ADSC", "VTIC", "DATE", "NTARF", "PRM"}
	}
	return []string{"ADCO", "MOTDETAT"}
}

// CheckAddressStable verifies the meter address does not change mid-stream.
func CheckAddressStable(ctx *Context, rule Rule) ([]Diagnostic, error) {
	var out []Diagnostic
	first := ""
	for i, rec := range ctx.Records {
		tag := "ADCO"
		if rec.Mode == teleinfo.ModeStandard {
			tag = "ADSC"
		}
		f, ok := rec.Value(tag)
		if !ok {
			continue
		}
		if first == "" {
			first = f.Value
			continue
		}
		if f.Value != first {
			out = append(out, diag(ctx, rule, i, tag,
				fmt.Sprintf("meter address changed from %s to %s", first, f.Value)))
		}
	}
	return out, nil
}

// CheckModeStable flags mode flips within a single capture, which usually
// mean two meters are wired to the same line.
func CheckModeStable(ctx *Context, rule Rule) ([]Diagnostic, error) {
	var out []Diagnostic
	if len(ctx.Records) == 0 {
		return nil, nil
	}
	first := ctx.Records[0].Mode
	for i, rec := range ctx.Records[1:] {
		if rec.Mode != first {
			out = append(out, diag(ctx, rule, i+1, "",
				fmt.Sprintf("mode changed from %s to %s", first, rec.Mode)))
		}
	}
	return out, nil
}

// CheckHorodatePlausible flags timestamps ahead of the capture clock by more
// than the allowed skew. Params: "maxSkewHours" (default 24).
func CheckHorodatePlausible(ctx *Context, rule Rule) ([]Diagnostic, error) {
	skew := 24 * time.Hour
	if v, ok := rule.Params["maxSkewHours"].(float64); ok && v > 0 {
		skew = time.Duration(v * float64(time.Hour))
	}
	limit := time.Now().Add(skew)
	var out []Diagnostic
	for i, rec := range ctx.Records {
		for tag, f := range rec.Fields {
			if f.Horodate == nil {
				continue
			}
			if f.Horodate.Time.After(limit) {
				out = append(out, diag(ctx, rule, i, tag,
					fmt.Sprintf("horodate %s is in the future", teleinfo.FormatHorodate(*f.Horodate))))
			}
		}
	}
	return out, nil
}

// CheckIndicesPresent verifies every billing index announced by the
// subscription is actually broadcast.
func CheckIndicesPresent(ctx *Context, rule Rule) ([]Diagnostic, error) {
	var out []Diagnostic
	for i, rec := range ctx.Records {
		for _, tv := range rec.Values(rec.BillingIndices()) {
			if !tv.Present {
				out = append(out, diag(ctx, rule, i, tv.Tag,
					fmt.Sprintf("billing index %s not broadcast", tv.Tag)))
			}
		}
	}
	return out, nil
}

// DefaultRulePack is the built-in validation profile applied when no pack is
// supplied explicitly.
func DefaultRulePack() RulePack {
	return RulePack{
		RulePackId: "tigate-default",
		Version:    "1.0.0",
		Profile:    "default",
		Rules: []Rule{
			{RuleId: "TI-001", Name: "frame checksums", Scope: "field", Severity: ERROR,
				CheckFunc: "CheckFrameChecksums", Refs: []string{"Enedis-NOI-CPT_54E §6"},
				Message: "field checksum must match"},
			{RuleId: "TI-002", Name: "required tags", Scope: "frame", Severity: ERROR,
				CheckFunc: "CheckRequiredTags", Refs: []string{"Enedis-NOI-CPT_54E §7"},
				Message: "mandatory broadcast tags present"},
			{RuleId: "TI-003", Name: "address stability", Scope: "stream", Severity: ERROR,
				CheckFunc: "CheckAddressStable", Refs: []string{"Enedis-NOI-CPT_54E §7.1"},
				Message: "meter address stable across frames"},
			{RuleId: "TI-004", Name: "mode stability", Scope: "stream", Severity: WARN,
				CheckFunc: "CheckModeStable", Refs: []string{"Enedis-NOI-CPT_54E §5"},
				Message: "a line carries a single mode"},
			{RuleId: "TI-005", Name: "horodate plausibility", Scope: "field", Severity: WARN,
				CheckFunc: "CheckHorodatePlausible", Refs: []string{"Enedis-NOI-CPT_54E §6.2"},
				Message: "horodates must not run ahead of the wall clock"},
			{RuleId: "TI-006", Name: "billing indices", Scope: "frame", Severity: WARN,
				CheckFunc: "CheckIndicesPresent", Refs: []string{"Enedis-NOI-CPT_54E §7.2"},
				Message: "subscribed billing indices broadcast"},
		},
	}
}

// NewDefaultEngine builds an engine with the default pack and all built-in
// checks registered.
func NewDefaultEngine() *Engine {
	e := NewEngine(DefaultRulePack())
	e.RegisterBuiltins()
	return e
}
