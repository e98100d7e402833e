package quantity

import (
	"math"
	"testing"
)

func TestParseCPU(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"250m", 250},
		{"1500m", 1500},
		{"2", 2000},
		{"0.5", 500},
		{"16", 16000},
	}

	for _, c := range cases {
		q := Parse(c.raw, CPU)
		if q.Empty() {
			t.Fatalf("Parse(%q) unexpectedly empty", c.raw)
		}
		if q.Value != c.want {
			t.Errorf("Parse(%q) = %.2f millicores, want %.2f", c.raw, q.Value, c.want)
		}
	}
}

func TestParseMemory(t *testing.T) {
	cases := []struct {
		raw  string
		want float64 // MiB
	}{
		{"512Mi", 512},
		{"512M", 512},
		{"512MiB", 512},
		{"1Gi", 1024},
		{"2G", 2048},
		{"1Ti", 1024 * 1024},
		{"2048Ki", 2},
		{"1048576", 1}, // raw bytes
	}

	for _, c := range cases {
		q := Parse(c.raw, Memory)
		if q.Empty() {
			t.Fatalf("Parse(%q) unexpectedly empty", c.raw)
		}
		if math.Abs(q.Value-c.want) > 1e-9 {
			t.Errorf("Parse(%q) = %.4f MiB, want %.4f", c.raw, q.Value, c.want)
		}
	}
}

// Round-trip at each suffix boundary: parse then reformat at the same
// granularity reproduces the input value.
func TestParseMemoryRoundTrip(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"3Ki", "0Mi"}, // below Mi resolution, rounds down
		{"768Mi", "768Mi"},
		{"2Gi", "2048Mi"},
		{"1536Mi", "1.50Gi"},
	}

	for _, c := range cases {
		q := Parse(c.raw, Memory)
		got := q.Mebibytes()
		if c.want[len(c.want)-2:] == "Gi" {
			got = q.Gibibytes()
		}
		if got != c.want {
			t.Errorf("Parse(%q) reformatted = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestEmptyVersusZero(t *testing.T) {
	for _, raw := range []string{"", "abc", "12xyz", "Gi"} {
		if q := Parse(raw, Memory); !q.Empty() {
			t.Errorf("Parse(%q, Memory) = %v, want empty", raw, q)
		}
		if q := Parse(raw, CPU); !q.Empty() {
			t.Errorf("Parse(%q, CPU) = %v, want empty", raw, q)
		}
	}

	zeroCPU := Parse("0", CPU)
	if zeroCPU.Empty() {
		t.Fatal("Parse(\"0\", CPU) must not be empty")
	}
	if got := zeroCPU.Millicores(); got != "0m" {
		t.Errorf("zero CPU formats to %q, want \"0m\"", got)
	}

	zeroMem := Parse("0", Memory)
	if got := zeroMem.Mebibytes(); got != "0Mi" {
		t.Errorf("zero memory formats to %q, want \"0Mi\"", got)
	}

	var empty Quantity
	for _, got := range []string{empty.Millicores(), empty.Cores(), empty.Mebibytes(), empty.Gibibytes()} {
		if got != "" {
			t.Errorf("empty quantity formats to %q, want \"\"", got)
		}
	}
}

func TestCoresTwoDecimals(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"250m", "0.25cores"},
		{"2", "2.00cores"},
		{"1", "1.00cores"},
		{"3500m", "3.50cores"},
	}

	for _, c := range cases {
		if got := Parse(c.raw, CPU).Cores(); got != c.want {
			t.Errorf("Parse(%q).Cores() = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestGibibytesTwoDecimals(t *testing.T) {
	if got := FromMebibytes(1536).Gibibytes(); got != "1.50Gi" {
		t.Errorf("1536 MiB = %q, want \"1.50Gi\"", got)
	}
	if got := Parse("16Gi", Memory).Gibibytes(); got != "16.00Gi" {
		t.Errorf("16Gi = %q, want \"16.00Gi\"", got)
	}
}

func TestContainerGranularityEndToEnd(t *testing.T) {
	if got := Parse("250m", CPU).Millicores(); got != "250m" {
		t.Errorf("250m at container granularity = %q, want \"250m\"", got)
	}
	if got := Parse("2Gi", Memory).Mebibytes(); got != "2048Mi" {
		t.Errorf("2Gi at container granularity = %q, want \"2048Mi\"", got)
	}
}

func TestMillicoresRoundHalfUp(t *testing.T) {
	if got := FromMillicores(2.5).Millicores(); got != "3m" {
		t.Errorf("2.5 millicores = %q, want \"3m\"", got)
	}
	if got := FromMillicores(2.4).Millicores(); got != "2m" {
		t.Errorf("2.4 millicores = %q, want \"2m\"", got)
	}
}
