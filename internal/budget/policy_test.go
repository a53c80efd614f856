package budget

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPolicyDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatal(err)
	}
	if p != DefaultPolicy() {
		t.Fatalf("expected defaults, got %+v", p)
	}
	p, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got %v", err)
	}
	if p != DefaultPolicy() {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

func TestLoadPolicyOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "leisure_share: 0.3\nweekly_band_percent: 15\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.LeisureShare != 0.3 || p.WeeklyBandPercent != 15 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if p.TransportDaysPerMonth != 30 || p.DailyMinActiveDays != 3 {
		t.Fatalf("unset fields should keep defaults: %+v", p)
	}
}

func TestLoadPolicyRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad yaml":      "leisure_share: [",
		"bad share":     "leisure_share: 2",
		"zero days":     "transport_days_per_month: 0",
		"daily swap":    "daily_low_factor: 1.5",
		"no min days":   "daily_min_active_days: 0",
		"neg tolerance": "pace_tolerance: -1",
	}
	for name, content := range cases {
		path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPolicy(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestPolicyValidateAggregates(t *testing.T) {
	p := Policy{}
	err := p.Validate()
	if err == nil {
		t.Fatalf("expected error for zero policy")
	}
	if strings.Count(err.Error(), "\n- ") < 3 {
		t.Fatalf("expected several problems listed, got %q", err)
	}
}
