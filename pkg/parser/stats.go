package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// statsTimestampRe extracts the mandatory timestamp from a stats line.
var statsTimestampRe = regexp.MustCompile(`^Stats (\d+(?:\.\d+)?): (.*)$`)

// tempPairRe matches the compact "actual/target" temperature form.
var tempPairRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)/(-?\d+(?:\.\d+)?)$`)

// section is one "name:" delimited group of tokens inside a stats line
// body. Tokens before the first named group belong to the unnamed
// top-level section.
type section struct {
	name  string
	pairs map[string]string
	order []string
	bare  []string
}

// splitSections tokenizes a stats line body into sections. Stats bodies
// are whitespace-delimited sequences of "key=value" tokens, "name:"
// section markers, and occasional bare values ("60.1/60.0" after a sensor
// marker).
func splitSections(body string) []section {
	sections := []section{{pairs: map[string]string{}}}
	current := &sections[0]

	for _, tok := range strings.Fields(body) {
		if strings.HasSuffix(tok, ":") && !strings.Contains(tok, "=") {
			sections = append(sections, section{
				name:  strings.TrimSuffix(tok, ":"),
				pairs: map[string]string{},
			})
			current = &sections[len(sections)-1]
			continue
		}
		if k, v, ok := strings.Cut(tok, "="); ok {
			if _, seen := current.pairs[k]; !seen {
				current.order = append(current.order, k)
			}
			current.pairs[k] = v
			continue
		}
		current.bare = append(current.bare, tok)
	}

	return sections
}

// parseNumeric parses a token value as a float, tolerating a trailing
// unit suffix in parentheses ("48000(kB)").
func parseNumeric(value string) (float64, error) {
	if i := strings.IndexByte(value, '('); i >= 0 {
		value = value[:i]
	}
	return strconv.ParseFloat(value, 64)
}

// statsFieldAliases maps stats line keys to StatsSample fields. Klipper
// writes sysload/memavail; older hosts and trimmed logs write load/mem.
var statsFieldAliases = map[string]string{
	"sysload":  "sysload",
	"load":     "sysload",
	"cputime":  "cputime",
	"memavail": "memavail",
	"mem":      "memavail",
	"freq":     "freq",
}

// ParseStatsLine decodes a classified stats line into a StatsSample.
// The timestamp is mandatory; everything else is best-effort. Malformed
// tokens are skipped individually and counted, so a single bad token never
// discards the rest of the sample. The returned malformed count feeds the
// run's data-quality statistics.
func ParseStatsLine(line types.RawLine) (*types.StatsSample, int, error) {
	sample, _, malformed, err := parseStatsSections(line)
	return sample, malformed, err
}

// parseStatsSections is ParseStatsLine plus the tokenized section stream,
// which the communication extractor reuses instead of re-tokenizing.
func parseStatsSections(line types.RawLine) (*types.StatsSample, []section, int, error) {
	m := statsTimestampRe.FindStringSubmatch(line.Text)
	if m == nil {
		return nil, nil, 0, fmt.Errorf("stats line %d has no timestamp", line.LineNumber)
	}

	ts, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("stats line %d has unparsable timestamp %q: %w", line.LineNumber, m[1], err)
	}

	sample := &types.StatsSample{
		Timestamp:    ts,
		LineNumber:   line.LineNumber,
		Temperatures: map[string]types.TempReading{},
	}

	malformed := 0
	sections := splitSections(m[2])

	for _, sec := range sections {
		malformed += applyKnownFields(sample, sec)
		if sec.name == "" {
			continue
		}
		reading, bad, ok := parseTempSection(sec)
		malformed += bad
		if ok {
			sample.Temperatures[sec.name] = reading
		}
	}

	return sample, sections, malformed, nil
}

// applyKnownFields copies recognized top-level metric keys from a section
// into the sample. A key already set by an earlier section wins; a key
// that never appears leaves its field nil so that missing and zero are
// never conflated.
func applyKnownFields(sample *types.StatsSample, sec section) int {
	malformed := 0
	for _, key := range sec.order {
		field, known := statsFieldAliases[key]
		if !known {
			continue
		}
		v, err := parseNumeric(sec.pairs[key])
		if err != nil {
			malformed++
			continue
		}
		switch field {
		case "sysload":
			if sample.SystemLoad == nil {
				sample.SystemLoad = &v
			}
		case "cputime":
			if sample.CPUTime == nil {
				sample.CPUTime = &v
			}
		case "memavail":
			if sample.MemoryAvailableKB == nil {
				sample.MemoryAvailableKB = &v
			}
		case "freq":
			if sample.McuFrequencyHz == nil {
				sample.McuFrequencyHz = &v
			}
		}
	}
	return malformed
}

// parseTempSection interprets a named section as a temperature sensor
// reading. Two forms are recognized: the Klipper key form
// ("heater_bed: target=60.0 temp=60.1 pwm=0.25") and the compact pair
// form ("heater_bed: 60.1/60.0"). The second return counts malformed
// numeric tokens; the third reports whether the section was a temperature
// reading at all.
func parseTempSection(sec section) (types.TempReading, int, bool) {
	var reading types.TempReading
	malformed := 0

	if raw, ok := sec.pairs["temp"]; ok {
		actual, err := parseNumeric(raw)
		if err != nil {
			return reading, 1, false
		}
		reading.Actual = actual
		if rawTarget, ok := sec.pairs["target"]; ok {
			if target, err := parseNumeric(rawTarget); err == nil {
				reading.Target = &target
			} else {
				malformed++
			}
		}
		if rawPwm, ok := sec.pairs["pwm"]; ok {
			if pwm, err := parseNumeric(rawPwm); err == nil {
				reading.Power = &pwm
			} else {
				malformed++
			}
		}
		return reading, malformed, true
	}

	for _, tok := range sec.bare {
		if m := tempPairRe.FindStringSubmatch(tok); m != nil {
			actual, errA := strconv.ParseFloat(m[1], 64)
			target, errT := strconv.ParseFloat(m[2], 64)
			if errA != nil || errT != nil {
				return reading, 1, false
			}
			reading.Actual = actual
			reading.Target = &target
			return reading, malformed, true
		}
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			reading.Actual = v
			return reading, malformed, true
		}
	}

	return reading, malformed, false
}
