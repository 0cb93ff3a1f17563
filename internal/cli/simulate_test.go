package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/placebadges/acquisition/internal/infrastructure/config"
	"github.com/placebadges/acquisition/internal/infrastructure/geocode"
	"github.com/placebadges/acquisition/internal/infrastructure/mockprovider"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func decodeLines(t *testing.T, out string) []notification {
	t.Helper()
	var got []notification
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var n notification
		if err := json.Unmarshal([]byte(line), &n); err != nil {
			t.Fatalf("invalid line %q: %v", line, err)
		}
		got = append(got, n)
	}
	return got
}

func TestSimulate_OfflineFixtures(t *testing.T) {
	gaz, err := geocode.NewGazetteer(geocode.DefaultOfflineRadiusKm)
	if err != nil {
		t.Fatalf("gazetteer: %v", err)
	}

	var out bytes.Buffer
	opts := simulateOptions{
		fixtures: mockprovider.FixtureNames(),
		interval: 50 * time.Millisecond,
		settle:   2 * time.Second,
	}
	if err := simulate(context.Background(), &out, testConfig(t), nil, gaz, opts, zerolog.Nop()); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	got := decodeLines(t, out.String())
	want := []string{"Mountain View", "Null Island", "College Park"}
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d: %s", len(want), len(got), out.String())
	}
	for i, n := range got {
		if n.Event != "place_acquired" || n.Place == nil || n.Place.Name != want[i] {
			t.Errorf("notification %d: expected %s, got %+v", i, want[i], n)
		}
	}
	if got[1].Place.HasCountry() {
		t.Errorf("place_no_country should resolve without a country")
	}
}

func TestSimulate_RepeatedFixtureIsDuplicate(t *testing.T) {
	gaz, err := geocode.NewGazetteer(geocode.DefaultOfflineRadiusKm)
	if err != nil {
		t.Fatalf("gazetteer: %v", err)
	}

	var out bytes.Buffer
	opts := simulateOptions{
		fixtures: []string{mockprovider.FixturePlaceOne, mockprovider.FixturePlaceOne},
		interval: 50 * time.Millisecond,
		settle:   2 * time.Second,
	}
	if err := simulate(context.Background(), &out, testConfig(t), nil, gaz, opts, zerolog.Nop()); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	got := decodeLines(t, out.String())
	if len(got) != 2 || got[0].Event != "place_acquired" || got[1].Event != "duplicate" {
		t.Fatalf("unexpected notifications: %s", out.String())
	}
}

func TestSimulate_UnknownFixture(t *testing.T) {
	opts := simulateOptions{fixtures: []string{"atlantis"}, interval: time.Millisecond, settle: time.Second}

	err := simulate(context.Background(), &bytes.Buffer{}, testConfig(t), nil, nil, opts, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "atlantis") {
		t.Fatalf("expected unknown fixture error, got %v", err)
	}
}

func TestRootCmd_HasCommands(t *testing.T) {
	for _, name := range []string{"serve", "simulate"} {
		cmd, _, err := RootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered: %v", name, err)
		}
	}
}
