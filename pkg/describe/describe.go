// Package describe fetches and scrapes the human-readable node report
// ("oc describe node" / "kubectl describe node"). The report has no
// schema guarantee across platform versions, so parsing is isolated
// here as a small line-oriented state machine driven by the fixed
// section marker lines.
package describe

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Describer produces the raw describe text for one node.
type Describer interface {
	DescribeNode(ctx context.Context, node string) (string, error)
}

// ExecDescriber shells out to the platform CLI. The binary is probed
// once at construction time: without it no node report can be
// produced, so a missing tool is a startup failure, not a per-node one.
type ExecDescriber struct {
	bin string
}

// NewExecDescriber resolves the CLI binary. With an empty name it
// prefers "oc" and falls back to "kubectl".
func NewExecDescriber(bin string) (*ExecDescriber, error) {
	candidates := []string{bin}
	if bin == "" {
		candidates = []string{"oc", "kubectl"}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return &ExecDescriber{bin: path}, nil
		}
	}
	return nil, fmt.Errorf("no describe tool found (tried %s): install oc or kubectl or set DESCRIBE_TOOL", strings.Join(candidates, ", "))
}

func (d *ExecDescriber) DescribeNode(ctx context.Context, node string) (string, error) {
	out, err := exec.CommandContext(ctx, d.bin, "describe", "node", node).Output()
	if err != nil {
		return "", fmt.Errorf("%s describe node %s: %w", d.bin, node, err)
	}
	return string(out), nil
}

// Allocation holds the raw request/limit tokens from the
// "Allocated resources" section, percentage suffixes stripped.
type Allocation struct {
	CPURequest    string
	CPULimit      string
	MemoryRequest string
	MemoryLimit   string
}

// PodLine is one row of the "Non-terminated Pods" table, raw tokens.
type PodLine struct {
	Namespace     string
	Name          string
	CPURequest    string
	CPULimit      string
	MemoryRequest string
	MemoryLimit   string
}

// Report is the scraped content of one node describe text.
type Report struct {
	Allocated Allocation
	Pods      []PodLine
	// PodCount comes from the "(N in total)" marker, 0 when absent.
	PodCount int
}

type parseState int

const (
	stateSeeking parseState = iota
	stateInPodsBlock
	stateInAllocatedBlock
	stateDone
)

var podCountRe = regexp.MustCompile(`Non-terminated Pods:\s*\(([0-9]+)\s*in\s*total\)`)

// ParseReport scrapes the describe text. Unknown lines are skipped;
// a malformed or truncated report yields a partial Report, never an
// error, since a degraded row beats an aborted run.
func ParseReport(text string) Report {
	var rep Report
	state := stateSeeking

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "Non-terminated Pods:"):
			if m := podCountRe.FindStringSubmatch(trimmed); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					rep.PodCount = n
				}
			}
			state = stateInPodsBlock
			continue
		case strings.HasPrefix(trimmed, "Allocated resources:"):
			state = stateInAllocatedBlock
			continue
		case strings.HasPrefix(trimmed, "Events:"):
			state = stateDone
		}

		switch state {
		case stateInPodsBlock:
			if pl, ok := parsePodLine(trimmed); ok {
				rep.Pods = append(rep.Pods, pl)
			}
		case stateInAllocatedBlock:
			parseAllocatedLine(trimmed, &rep.Allocated)
		}
	}

	return rep
}

func parsePodLine(line string) (PodLine, bool) {
	if line == "" || strings.HasPrefix(line, "Namespace") || strings.HasPrefix(line, "---") {
		return PodLine{}, false
	}

	// Columns: namespace, name, cpu-req, (pct), cpu-limit, (pct),
	// mem-req, (pct), mem-limit, (pct), age.
	parts := strings.Fields(line)
	if len(parts) < 9 {
		return PodLine{}, false
	}

	return PodLine{
		Namespace:     parts[0],
		Name:          parts[1],
		CPURequest:    stripPercent(parts[2]),
		CPULimit:      stripPercent(parts[4]),
		MemoryRequest: stripPercent(parts[6]),
		MemoryLimit:   stripPercent(parts[8]),
	}, true
}

func parseAllocatedLine(line string, alloc *Allocation) {
	if line == "" ||
		strings.HasPrefix(line, "Resource") ||
		strings.HasPrefix(line, "---") ||
		strings.Contains(line, "Total limits may exceed") {
		return
	}

	parts := strings.Fields(line)
	if len(parts) < 4 {
		return
	}

	switch parts[0] {
	case "cpu":
		alloc.CPURequest = stripPercent(parts[1])
		alloc.CPULimit = stripPercent(parts[3])
	case "memory":
		alloc.MemoryRequest = stripPercent(parts[1])
		alloc.MemoryLimit = stripPercent(parts[3])
	}
}

// stripPercent removes a parenthesized percentage glued to a value
// token ("250m(12%)" -> "250m"). Free-standing "(12%)" tokens are
// already skipped by column position.
func stripPercent(tok string) string {
	if i := strings.IndexByte(tok, '('); i >= 0 {
		return tok[:i]
	}
	return tok
}
