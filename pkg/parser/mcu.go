package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/supporttools/klipper-doctor/pkg/logger"
	"github.com/supporttools/klipper-doctor/pkg/types"
)

// mcuLoadRe extracts the identity fields from an MCU load line, e.g.
// "Loaded MCU 'mcu' 91 commands (v0.12.0-95-gabcdef12 / gcc: ...)".
var mcuLoadRe = regexp.MustCompile(`^Loaded MCU '([^']+)' (\d+) commands \((.*)\)$`)

// trackerState is the state of the MCU block machine.
type trackerState int

const (
	trackerIdle trackerState = iota
	trackerCollecting
)

// McuConfigTracker maintains parsing state across the consecutive lines
// that describe one MCU's identity and configuration. An MCU load line
// opens a block; config lines update the in-progress record; any line
// outside the config grammar closes it. The in-progress record is mutable
// only inside the tracker and finalized on block close.
type McuConfigTracker struct {
	state     trackerState
	current   *types.McuRecord
	records   []types.McuRecord
	discarded int
}

// NewMcuConfigTracker returns a tracker in the idle state.
func NewMcuConfigTracker() *McuConfigTracker {
	return &McuConfigTracker{}
}

// Observe feeds one classified line to the state machine. Lines that are
// not part of the MCU grammar close any open block; callers should invoke
// Observe for every line so block boundaries track file order.
func (t *McuConfigTracker) Observe(kind types.LineKind, line types.RawLine) {
	switch kind {
	case types.LineKindMcuLoad:
		t.closeCurrent()
		t.openBlock(line)
	case types.LineKindMcuConfig:
		t.applyConfig(line)
	default:
		t.closeCurrent()
	}
}

// Finish closes any trailing block and returns the finalized records plus
// the number of blocks discarded for lacking an MCU id.
func (t *McuConfigTracker) Finish() ([]types.McuRecord, int) {
	t.closeCurrent()
	return t.records, t.discarded
}

// openBlock starts a new in-progress record from a load line. A load line
// the strict pattern cannot parse still opens a block so that subsequent
// config lines are consumed, but the block is discarded on close because
// it carries no id.
func (t *McuConfigTracker) openBlock(line types.RawLine) {
	t.state = trackerCollecting
	t.current = &types.McuRecord{
		ConfigFields: map[string]string{},
		LineNumber:   line.LineNumber,
	}

	m := mcuLoadRe.FindStringSubmatch(line.Text)
	if m == nil {
		logger.WithField("line", line.LineNumber).Warn("MCU load line did not match expected format")
		return
	}

	t.current.McuID = m[1]
	if commands, err := strconv.Atoi(m[2]); err == nil {
		t.current.CommandsLoaded = commands
	}
	t.current.FirmwareVersion = m[3]
}

// applyConfig updates the in-progress record from a config line. Config
// lines naming a different MCU than the open block close the block and
// are dropped; config lines with no open block are dropped.
func (t *McuConfigTracker) applyConfig(line types.RawLine) {
	if t.state != trackerCollecting {
		logger.WithField("line", line.LineNumber).Debug("MCU config line outside a config block, ignoring")
		return
	}

	if m := mcuConfigRe.FindStringSubmatch(line.Text); m != nil {
		if m[1] != t.current.McuID {
			t.closeCurrent()
			logger.WithField("line", line.LineNumber).Debugf("config line for MCU %q outside its block, ignoring", m[1])
			return
		}
		for _, tok := range strings.Fields(m[2]) {
			if k, v, ok := strings.Cut(tok, "="); ok {
				t.current.ConfigFields[k] = v
			}
		}
		return
	}

	if m := mcuConfiguredRe.FindStringSubmatch(line.Text); m != nil {
		if m[1] != t.current.McuID {
			t.closeCurrent()
			logger.WithField("line", line.LineNumber).Debugf("configured line for MCU %q outside its block, ignoring", m[1])
			return
		}
		if moves, err := strconv.Atoi(m[2]); err == nil {
			t.current.MovesConfigured = &moves
		}
	}
}

// closeCurrent finalizes the in-progress record. A record with no MCU id
// is discarded with a warning, never emitted partially.
func (t *McuConfigTracker) closeCurrent() {
	if t.state != trackerCollecting {
		return
	}
	t.state = trackerIdle

	record := t.current
	t.current = nil

	if record.McuID == "" {
		t.discarded++
		logger.WithField("line", record.LineNumber).Warn("discarding MCU block with no id")
		return
	}
	t.records = append(t.records, *record)
}
