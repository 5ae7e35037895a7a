package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func seedFile(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate test file")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "data", "seed.json")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "fintrack.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("MEMORY_SEED_FILE", "")
	t.Setenv("DISPLAY_LOCALE", "en-US")
}

func TestSeedSummaryAndBreakdown(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "sqlite schema is up to date") {
		t.Errorf("migrate output = %q", out)
	}

	out, err = execute(t, "seed", "--owner", "u1", "--file", seedFile(t))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "imported 3 categories, 1 income, 2 expenses, 1 settings for u1") {
		t.Errorf("seed output = %q", out)
	}

	if _, err := execute(t, "seed", "--owner", "u2", "--file", seedFile(t)); err != nil {
		t.Fatalf("seed second owner: %v", err)
	}

	for _, owner := range []string{"u1", "u2"} {
		out, err = execute(t, "summary", "--owner", owner, "--date", "2024-03-15", "--json")
		if err != nil {
			t.Fatalf("summary %s: %v", owner, err)
		}
		var sum map[string]any
		if err := json.Unmarshal([]byte(out), &sum); err != nil {
			t.Fatalf("summary json: %v\n%s", err, out)
		}
		if sum["balance"] != "900.00" || sum["riskLevel"] != "critical" {
			t.Errorf("summary %s = %v", owner, sum)
		}
	}

	out, err = execute(t, "summary", "--owner", "u1", "--date", "2024-03-15")
	if err != nil {
		t.Fatalf("summary text: %v", err)
	}
	for _, want := range []string{"EUR 900.00", "24 days", "2024-03-01 to 2024-03-31"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary text missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "breakdown", "--owner", "u1", "--date", "2024-03-15")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if !strings.Contains(out, "Food") || !strings.Contains(out, "50.0%") || !strings.Contains(out, "Uncategorized") {
		t.Errorf("breakdown output = %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("MEMORY_SEED_FILE", "")
	t.Setenv("AMQP_URL", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing owner", []string{"summary"}, `required flag(s) "owner" not set`},
		{"bad date", []string{"summary", "--owner", "u1", "--date", "tomorrow"}, "invalid date"},
		{"no settings", []string{"summary", "--owner", "u1"}, "settings not configured"},
		{"migrate memory", []string{"migrate"}, "migrate needs a SQL backend"},
		{"seed memory", []string{"seed", "--owner", "u1", "--file", "x.json"}, "memory backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
