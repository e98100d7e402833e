package quantity

import (
	"math"
	"strconv"
	"strings"
)

// Kind selects the parsing grammar for a raw quantity string.
type Kind int

const (
	CPU Kind = iota
	Memory
)

// Unit is the canonical base unit a parsed value is stored in.
type Unit int

const (
	Millicores Unit = iota
	Mebibytes
)

// Quantity is a parsed resource amount in a canonical base unit.
// The zero Quantity is "empty": no value was present or the input
// did not parse. Empty is distinct from an explicit zero ("0"),
// which parses to a set Quantity with Value 0.
type Quantity struct {
	Value float64
	Unit  Unit
	set   bool
}

// Empty reports whether no value is present.
func (q Quantity) Empty() bool {
	return !q.set
}

// FromMillicores builds a CPU quantity from a millicore value.
func FromMillicores(v float64) Quantity {
	return Quantity{Value: v, Unit: Millicores, set: true}
}

// FromMebibytes builds a memory quantity from a mebibyte value.
func FromMebibytes(v float64) Quantity {
	return Quantity{Value: v, Unit: Mebibytes, set: true}
}

// Parse converts a raw quantity string from the cluster API into a
// canonical Quantity. CPU parses to millicores ("250m" -> 250,
// "2" -> 2000). Memory parses to mebibytes; K/M/G/T families are
// binary units and an unsuffixed number is raw bytes. Anything that
// does not match the grammar comes back empty, never zero: missing
// data must stay distinguishable from a genuine zero allocation.
func Parse(raw string, kind Kind) Quantity {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Quantity{}
	}

	switch kind {
	case CPU:
		return parseCPU(raw)
	case Memory:
		return parseMemory(raw)
	}
	return Quantity{}
}

func parseCPU(raw string) Quantity {
	if s, ok := strings.CutSuffix(raw, "m"); ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return Quantity{}
		}
		return FromMillicores(v)
	}

	cores, err := strconv.ParseFloat(raw, 64)
	if err != nil || cores < 0 {
		return Quantity{}
	}
	return FromMillicores(cores * 1000)
}

func parseMemory(raw string) Quantity {
	i := 0
	for i < len(raw) && (raw[i] >= '0' && raw[i] <= '9' || raw[i] == '.') {
		i++
	}
	if i == 0 {
		return Quantity{}
	}

	num, err := strconv.ParseFloat(raw[:i], 64)
	if err != nil || num < 0 {
		return Quantity{}
	}

	var mib float64
	switch strings.ToLower(raw[i:]) {
	case "ki", "k", "kib":
		mib = num / 1024
	case "mi", "m", "mib":
		mib = num
	case "gi", "g", "gib":
		mib = num * 1024
	case "ti", "t", "tib":
		mib = num * 1024 * 1024
	case "":
		// Raw byte count.
		mib = num / (1024 * 1024)
	default:
		return Quantity{}
	}
	return FromMebibytes(mib)
}

// Millicores formats at pod/container granularity: whole millicores
// with an "m" suffix, round half up. Empty formats to "".
func (q Quantity) Millicores() string {
	if !q.set {
		return ""
	}
	return strconv.FormatInt(roundHalfUp(q.Value), 10) + "m"
}

// Cores formats at node/quota granularity: cores with exactly two
// decimal digits and a "cores" suffix. strconv always uses '.' as the
// decimal separator, so output is identical on every host locale.
func (q Quantity) Cores() string {
	if !q.set {
		return ""
	}
	return strconv.FormatFloat(q.Value/1000, 'f', 2, 64) + "cores"
}

// Mebibytes formats at pod/container granularity: whole mebibytes
// with an "Mi" suffix. Empty formats to "".
func (q Quantity) Mebibytes() string {
	if !q.set {
		return ""
	}
	return strconv.FormatInt(roundHalfUp(q.Value), 10) + "Mi"
}

// Gibibytes formats at node/quota granularity: two-decimal gibibytes
// with a "Gi" suffix.
func (q Quantity) Gibibytes() string {
	if !q.set {
		return ""
	}
	return strconv.FormatFloat(q.Value/1024, 'f', 2, 64) + "Gi"
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
