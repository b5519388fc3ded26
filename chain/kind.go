package chain

import "fmt"

// Kind identifies a node in the chain.
type Kind int

// Node kinds in chain order.
const (
	KindHighPass Kind = iota
	KindDeEsser
	KindCompressor
	KindLowShelf
	KindMidPeak
	KindHighShelf
	KindSaturator
	KindReverb
	KindDelay
	KindLimiter
)

var kindNames = [...]string{
	KindHighPass:   "highpass",
	KindDeEsser:    "deesser",
	KindCompressor: "compressor",
	KindLowShelf:   "eq-low",
	KindMidPeak:    "eq-mid",
	KindHighShelf:  "eq-high",
	KindSaturator:  "saturator",
	KindReverb:     "reverb",
	KindDelay:      "delay",
	KindLimiter:    "limiter",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}

	return 0, false
}

// IsEffect reports whether k is one of the amount-controlled effects that
// the conditional topology may omit.
func (k Kind) IsEffect() bool {
	return k == KindSaturator || k == KindReverb || k == KindDelay
}

// Band selects one of the three EQ bands.
type Band int

const (
	BandLow Band = iota
	BandMid
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// Kind returns the node kind implementing the band.
func (b Band) Kind() Kind {
	switch b {
	case BandMid:
		return KindMidPeak
	case BandHigh:
		return KindHighShelf
	default:
		return KindLowShelf
	}
}

// Topology controls how disabled effects are represented.
type Topology int

const (
	// TopologyConditional omits zero-amount effects at build time.
	TopologyConditional Topology = iota
	// TopologyBypass keeps every node and skips disabled ones in place.
	TopologyBypass
)

func (t Topology) String() string {
	if t == TopologyBypass {
		return "bypass"
	}

	return "conditional"
}
