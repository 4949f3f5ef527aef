package teleinfo

// Value returns the field stored under tag and whether it is present.
func (r *Record) Value(tag string) (Field, bool) {
	f, ok := r.Fields[tag]
	return f, ok
}

// TagValue is one entry of a Values result. Present distinguishes a tag the
// meter did not send from a tag sent with an empty value.
type TagValue struct {
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// Values resolves a list of tags in order, keeping absent ones in place so
// the caller can line results up against the request.
func (r *Record) Values(tags []string) []TagValue {
	out := make([]TagValue, 0, len(tags))
	for _, tag := range tags {
		tv := TagValue{Tag: tag}
		if f, ok := r.Fields[tag]; ok {
			tv.Value = f.Value
			tv.Present = true
		}
		out = append(out, tv)
	}
	return out
}

// MessageType reports whether the record is a short or normal message.
// Standard frames are always normal; a legacy frame is short when the meter
// omits the subscription option tag, which only happens on the reduced
// broadcast.
func (r *Record) MessageType() MessageType {
	if r.Mode == ModeStandard {
		return MessageNormal
	}
	if _, ok := r.Fields["OPTARIF"]; ok {
		return MessageNormal
	}
	return MessageShort
}

// MeterType reports mono or three phase wiring, inferred from the presence
// of the per-phase current tags.
func (r *Record) MeterType() MeterType {
	phased := "IINST1"
	if r.Mode == ModeStandard {
		phased = "SINSTS1"
	}
	if _, ok := r.Fields[phased]; ok {
		return MeterTriPhase
	}
	return MeterMonoPhase
}

// CurrentIndex returns the billing index tag currently accumulating. In
// standard mode the active tariff number maps directly onto an EASF index.
// In legacy mode the current tariff period tag is translated; unknown or
// missing periods fall back to the base index.
func (r *Record) CurrentIndex() string {
	if r.Mode == ModeStandard {
		f, ok := r.Fields["NTARF"]
		if !ok {
			return ""
		}
		return "EASF" + f.Value
	}
	f, ok := r.Fields["PTEC"]
	if !ok {
		return "BASE"
	}
	switch f.Value {
	case "TH..":
		return "BASE"
	case "HC..":
		return "HCHC"
	case "HP..":
		return "HCHP"
	case "HN..":
		return "EJPHN"
	case "PM..":
		return "EJPPM"
	case "HCJB":
		return "BBRHCJB"
	case "HCJW":
		return "BBRHCJW"
	case "HCJR":
		return "BBRHCJR"
	case "HPJB":
		return "BBRHPJB"
	case "HPJW":
		return "BBRHPJW"
	case "HPJR":
		return "BBRHPJR"
	}
	return "BASE"
}

var standardBillingIndices = []string{
	"EASF01", "EASF02", "EASF03", "EASF04", "EASF05",
	"EASF06", "EASF07", "EASF08", "EASF09", "EASF10",
}

// BillingIndices lists the index tags relevant to the subscription carried
// by the record. Standard meters always expose the ten EASF registers; for
// legacy meters the set depends on the subscribed option.
func (r *Record) BillingIndices() []string {
	if r.Mode == ModeStandard {
		out := make([]string, len(standardBillingIndices))
		copy(out, standardBillingIndices)
		return out
	}
	f, ok := r.Fields["OPTARIF"]
	if !ok {
		return []string{"BASE"}
	}
	optarif := f.Value
	if len(optarif) >= 3 && optarif[:3] == "BBR" {
		optarif = "BBR"
	}
	switch optarif {
	case "BASE":
		return []string{"BASE"}
	case "HC..":
		return []string{"HCHC", "HCHP"}
	case "EJP.":
		return []string{"EJPHN", "EJPPM"}
	case "BBR":
		return []string{"BBRHCJB", "BBRHPJB", "BBRHCJR", "BBRHPJR", "BBRHCJW", "BBRHPJW"}
	}
	return []string{"BASE"}
}
