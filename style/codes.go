package style

import (
	"strconv"
	"strings"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/engine"
)

// PartCode returns the selector bits of a part. "customN" parts count up
// from CUSTOM1. Unknown parts are reported and yield 0.
func PartCode(v engine.Version, part string) uint32 {
	parts := engine.PartCodes(v)
	if rest, ok := strings.CutPrefix(part, "custom"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			diag.Reportf("style.PartCode", diag.KindProgrammer, "bad custom part %q", part)
			return 0
		}
		return parts["CUSTOM1"] + uint32(n-1)
	}
	code, ok := parts[part]
	if !ok {
		diag.Reportf("style.PartCode", diag.KindProgrammer, "unknown part %q for %s", part, v)
		return 0
	}
	return code
}

// StateCode returns the selector bits of one state. "" and unknown states
// yield 0; unknown ones are reported.
func StateCode(state string) uint32 {
	if state == "" {
		return 0
	}
	code, ok := engine.StateCodes()[state]
	if !ok {
		diag.Reportf("style.StateCode", diag.KindProgrammer, "unknown state %q", state)
		return 0
	}
	return code
}

// StatesCode ORs the codes of a "A|B" state list.
func StatesCode(states string) uint32 {
	var code uint32
	for _, s := range engine.SplitFlags(states) {
		code |= StateCode(s)
	}
	return code
}

// SelectorCode combines a part and a state list.
func SelectorCode(v engine.Version, part, states string) uint32 {
	return PartCode(v, part) | StatesCode(states)
}

func PartBuildCode(part string) string { return "LV_PART_" + part }

func StateBuildCode(state string) string { return "LV_STATE_" + state }

// SelectorBuildCode renders a selector as C source.
func SelectorBuildCode(part, states string) string {
	list := engine.SplitFlags(states)
	if len(list) == 0 {
		return PartBuildCode(part) + " | 0"
	}
	codes := make([]string, len(list))
	for i, s := range list {
		codes[i] = StateBuildCode(s)
	}
	return PartBuildCode(part) + " | " + strings.Join(codes, " | ")
}
