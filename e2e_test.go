//go:build e2e

package cellar_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/discochess/cellar/benchmark/workload"
)

func TestE2E_TraceAndSimulate(t *testing.T) {
	tmpDir := t.TempDir()
	tracePath := filepath.Join(tmpDir, "zipf.zst")
	reportPath := filepath.Join(tmpDir, "report.md")

	// Step 1: Generate a compressed trace.
	t.Log("Generating trace...")
	start := time.Now()
	runCLI(t, "trace",
		"--output", tracePath,
		"--workload", "zipf",
		"--ops", "50000",
		"--keys", "5000",
		"--seed", "7",
	)
	t.Logf("   Generated trace in %v", time.Since(start))

	trace, err := workload.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("Error reading trace: %v", err)
	}
	if len(trace) != 50000 {
		t.Fatalf("trace has %d ops, want 50000", len(trace))
	}

	// Step 2: Simulate all policies against it.
	t.Log("Simulating policies...")
	start = time.Now()
	runCLI(t, "simulate",
		"--trace", tracePath,
		"--max-size", "500",
		"--seeds", "5",
		"--bootstrap", "500",
		"--format", "markdown",
		"--output", reportPath,
	)
	t.Logf("   Simulated in %v", time.Since(start))

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("Error reading report: %v", err)
	}
	for _, want := range []string{"| lru |", "| fifo |", "| random |", "## lru vs fifo", "## lru vs random"} {
		if !strings.Contains(string(report), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestE2E_Replay(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.txt")
	err := os.WriteFile(script, []byte(strings.Join([]string{
		"set a 1",
		"set b 2",
		"get a",
		"set c 3 # evicts b under lru",
		"keys",
		"stats",
	}, "\n")), 0o644)
	if err != nil {
		t.Fatalf("Error writing script: %v", err)
	}

	out := runCLI(t, "replay", "--max-size", "2", "--policy", "lru", script)

	for _, want := range []string{
		"event: evict b=2",
		"keys: [a c]",
		"size=2 max=2 policy=lru hits=1 misses=0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "./cmd/cellar"}, args...)...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("cellar %s: %v", args[0], err)
	}
	return string(out)
}
