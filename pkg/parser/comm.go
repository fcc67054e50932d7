package parser

import (
	"strings"

	"github.com/supporttools/klipper-doctor/pkg/types"
)

// Communication counter keys as they appear in stats sections and serial
// stat dumps. Counters are cumulative on the Klipper side.
const (
	keyRxError         = "rx_error"
	keyTxError         = "tx_error"
	keyBytesWrite      = "bytes_write"
	keyBytesRead       = "bytes_read"
	keyBytesRetransmit = "bytes_retransmit"
	keyRetransmit      = "retransmit"
)

// extractCommStat pulls the communication counters out of an already
// tokenized stats line. Counters are summed across sections, since a host
// with several MCUs reports one section per link. Returns nil when the
// line carries no communication fields at all: the series is sparse, and
// zero-filling would present missing telemetry as "no errors".
func extractCommStat(sections []section, timestamp float64, lineNumber int) *types.CommunicationStat {
	stat := &types.CommunicationStat{
		Timestamp:  timestamp,
		LineNumber: lineNumber,
	}
	found := false

	for _, sec := range sections {
		for _, key := range sec.order {
			v, err := parseNumeric(sec.pairs[key])
			if err != nil {
				continue
			}
			switch key {
			case keyRxError:
				stat.RxErrors += int(v)
				found = true
			case keyTxError:
				stat.TxErrors += int(v)
				found = true
			case keyBytesWrite:
				addInt64(&stat.BytesSent, int64(v))
				found = true
			case keyBytesRead:
				addInt64(&stat.BytesReceived, int64(v))
				found = true
			case keyBytesRetransmit, keyRetransmit:
				addInt64(&stat.Retransmits, int64(v))
				found = true
			}
		}
	}

	if !found {
		return nil
	}
	return stat
}

// ParseCommDump decodes a standalone counter dump line ("Dumping serial
// stats: bytes_write=7457 bytes_read=12463 ..."). Dump lines carry no
// clock of their own, so the caller supplies the most recent sample
// timestamp. Returns nil when no recognized counter is present.
func ParseCommDump(line types.RawLine, lastTimestamp float64) *types.CommunicationStat {
	_, body, ok := strings.Cut(line.Text, ":")
	if !ok {
		return nil
	}
	return extractCommStat(splitSections(body), lastTimestamp, line.LineNumber)
}

// addInt64 accumulates into an optional counter, materializing it on
// first use so absent and zero stay distinct.
func addInt64(dst **int64, v int64) {
	if *dst == nil {
		*dst = new(int64)
	}
	**dst += v
}
