package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/KaramelBytes/tabrec-cli/internal/config"
)

// testSetup points output at a temp dir and restores global state afterwards.
func testSetup(t *testing.T) string {
	t.Helper()
	prev := cfg
	out := t.TempDir()
	cfg = &cfgpkg.Global{
		OutputDir:    out,
		Window:       7,
		Shift:        3,
		PctThreshold: 20,
		AbsThreshold: 60,
		RecentDays:   30,
	}
	t.Cleanup(func() {
		cfg = prev
		rootCmd.SetArgs(nil)
	})
	return out
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestDiffCommand(t *testing.T) {
	out := testSetup(t)
	in := t.TempDir()
	a := writeInput(t, in, "jan.csv", "ID,Name,Qty\na,alice,2\nb,bob,1\n")
	b := writeInput(t, in, "feb.csv", "ID,Name,Qty\na,alice,3\nb,bob,1\n")

	rootCmd.SetArgs([]string{"diff", a, b, "--key", "ID", "--columns", "Name,Qty"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("diff: %v", err)
	}

	dir := filepath.Join(out, "compare_changes", "comparison_jan_vs_feb")
	for _, f := range []string{"full_result.csv", "filtered_result.csv", "changes.csv", "info.md"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("missing output %s: %v", f, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "filtered_result.csv"))
	if err != nil {
		t.Fatalf("read filtered: %v", err)
	}
	if !strings.Contains(string(data), "2 → 3") {
		t.Fatalf("filtered result should carry the transition, got:\n%s", data)
	}
}

func TestMergeCommand(t *testing.T) {
	out := testSetup(t)
	in := t.TempDir()
	a := writeInput(t, in, "one.csv", "ID,A\nk1,1\nk2,2\n")
	b := writeInput(t, in, "two.csv", "ID,A\nk2,20\nk3,30\n")

	rootCmd.SetArgs([]string{"merge", a, b, "--key-columns", "ID"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("merge: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "merged_files", "merged_one_two", "data.csv"))
	if err != nil {
		t.Fatalf("read merged output: %v", err)
	}
	head := strings.SplitN(string(data), "\n", 2)[0]
	if head != "merge_key,A,A_second" {
		t.Fatalf("merged header: got %q", head)
	}
	if !strings.Contains(string(data), "k3,") {
		t.Fatalf("right-only key should survive the outer join:\n%s", data)
	}
}

func TestMonitorCommand(t *testing.T) {
	out := testSetup(t)
	in := t.TempDir()

	var sb strings.Builder
	sb.WriteString("Company,Service,Date,Usage\n")
	for i := 0; i < 10; i++ {
		v := "100"
		if i >= 7 {
			v = "200"
		}
		sb.WriteString(fmt.Sprintf("acme,compute,2024-01-%02d,%s\n", i+1, v))
	}
	p := writeInput(t, in, "usage.csv", sb.String())

	rootCmd.SetArgs([]string{"monitor", p,
		"--entity-column", "Company", "--series-column", "Service",
		"--value-column", "Usage", "--date-column", "Date",
		"--no-aggregate"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("monitor: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "anomaly_detection", "usage", "flagged_groups.csv"))
	if err != nil {
		t.Fatalf("read flagged output: %v", err)
	}
	if !strings.Contains(string(data), "increase") {
		t.Fatalf("sustained jump should be flagged as increase:\n%s", data)
	}
}

func TestStem(t *testing.T) {
	if got := stem("/tmp/data/export_v2.xlsx"); got != "export_v2" {
		t.Fatalf("stem: got %q", got)
	}
}

func TestSplitColumns(t *testing.T) {
	got := splitColumns([]string{"a, b", "c", " ", ""})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitColumns: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitColumns[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJoinStems(t *testing.T) {
	got := joinStems([]string{"a.csv", "b.csv", "c.csv", "d.csv", "e.csv"})
	if got != "a_b_c_and_others" {
		t.Fatalf("joinStems: got %q", got)
	}
}
