package teleinfo

import "sort"

// The three tag dictionaries below are the grammar: a line only parses when
// its tag belongs to the dictionary matching the attempted line form. The
// timestamped and plain Standard dictionaries are disjoint.

var legacyTags = map[string]struct{}{
	"ADCO":     {},
	"OPTARIF":  {},
	"ISOUSC":   {},
	"PEJP":     {},
	"PTEC":     {},
	"DEMAIN":   {},
	"IINST":    {},
	"IINST1":   {},
	"IINST2":   {},
	"IINST3":   {},
	"ADPS":     {},
	"IMAX":     {},
	"IMAX1":    {},
	"IMAX2":    {},
	"IMAX3":    {},
	"PAPP":     {},
	"PMAX":     {},
	"HHPHC":    {},
	"MOTDETAT": {},
	"PPOT":     {},
	"BASE":     {},
	"HCHC":     {},
	"HCHP":     {},
	"EJPHN":    {},
	"EJPHPM":   {},
	"BBRHCJB":  {},
	"BBRHPJB":  {},
	"BBRHCJW":  {},
	"BBRHPJW":  {},
	"BBRHCJR":  {},
	"BBRHPJR":  {},
	"ADIR1":    {},
	"ADIR2":    {},
	"ADIR3":    {},
}

var standardTags = map[string]struct{}{
	"ADSC":     {},
	"VTIC":     {},
	"NGTF":     {},
	"LTARF":    {},
	"EAST":     {},
	"EASF01":   {},
	"EASF02":   {},
	"EASF03":   {},
	"EASF04":   {},
	"EASF05":   {},
	"EASF06":   {},
	"EASF07":   {},
	"EASF08":   {},
	"EASF09":   {},
	"EASF10":   {},
	"EASD01":   {},
	"EASD02":   {},
	"EASD03":   {},
	"EASD04":   {},
	"EAIT":     {},
	"ERQ1":     {},
	"ERQ2":     {},
	"ERQ3":     {},
	"ERQ4":     {},
	"IRMS1":    {},
	"IRMS2":    {},
	"IRMS3":    {},
	"URMS1":    {},
	"URMS2":    {},
	"URMS3":    {},
	"PREF":     {},
	"PCOUP":    {},
	"SINSTS":   {},
	"SINSTS1":  {},
	"SINSTS2":  {},
	"SINSTS3":  {},
	"SINSTI":   {},
	"STGE":     {},
	"MSG1":     {},
	"MSG2":     {},
	"PRM":      {},
	"RELAIS":   {},
	"NTARF":    {},
	"NJOURF":   {},
	"NJOURF+1": {},
	"PJOURF+1": {},
	"PPOINTE":  {},
}

var standardHorodateTags = map[string]struct{}{
	"DATE":      {},
	"SMAXSN":    {},
	"SMAXSN1":   {},
	"SMAXSN2":   {},
	"SMAXSN3":   {},
	"SMAXSN-1":  {},
	"SMAXSN1-1": {},
	"SMAXSN2-1": {},
	"SMAXSN3-1": {},
	"SMAXIN":    {},
	"SMAXIN-1":  {},
	"CCASN":     {},
	"CCASN-1":   {},
	"CCAIN":     {},
	"CCAIN-1":   {},
	"UMOY1":     {},
	"UMOY2":     {},
	"UMOY3":     {},
	"DPM1":      {},
	"FPM1":      {},
	"DPM2":      {},
	"FPM2":      {},
	"DPM3":      {},
	"FPM3":      {},
}

// IsLegacyTag reports membership in the Legacy dictionary.
func IsLegacyTag(tag string) bool {
	_, ok := legacyTags[tag]
	return ok
}

// IsStandardTag reports membership in the plain Standard dictionary.
func IsStandardTag(tag string) bool {
	_, ok := standardTags[tag]
	return ok
}

// IsStandardHorodateTag reports membership in the timestamped Standard
// dictionary.
func IsStandardHorodateTag(tag string) bool {
	_, ok := standardHorodateTags[tag]
	return ok
}

// TagInfo describes one dictionary entry for listings and the HTTP surface.
type TagInfo struct {
	Tag      string `json:"tag"`
	Mode     Mode   `json:"mode"`
	Horodate bool   `json:"horodate"`
}

// Tags returns every known tag across both grammars, sorted by mode then tag.
func Tags() []TagInfo {
	out := make([]TagInfo, 0, len(legacyTags)+len(standardTags)+len(standardHorodateTags))
	for tag := range legacyTags {
		out = append(out, TagInfo{Tag: tag, Mode: ModeLegacy})
	}
	for tag := range standardTags {
		out = append(out, TagInfo{Tag: tag, Mode: ModeStandard})
	}
	for tag := range standardHorodateTags {
		out = append(out, TagInfo{Tag: tag, Mode: ModeStandard, Horodate: true})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mode != out[j].Mode {
			return out[i].Mode < out[j].Mode
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
