package service

import (
	"errors"
	"testing"

	"smart_hatchery/internal/models"
)

func TestCommandGate_CanSend(t *testing.T) {
	t.Parallel()

	g := NewCommandGate()
	if g.CanSend(&models.Configuration{IsMaintenance: true}) {
		t.Fatalf("maintenance must block commands")
	}
	if !g.CanSend(&models.Configuration{IsMaintenance: false}) {
		t.Fatalf("commands must pass outside maintenance")
	}
	if g.CanSend(nil) {
		t.Fatalf("no active configuration must block commands")
	}
}

func TestCommandGate_Check(t *testing.T) {
	t.Parallel()

	g := NewCommandGate()
	cases := []struct {
		name   string
		cmd    string
		active *models.Configuration
		want   error
	}{
		{name: "allowed", cmd: CommandServoTurn, active: &models.Configuration{}, want: nil},
		{name: "maintenance", cmd: CommandTestAll, active: &models.Configuration{IsMaintenance: true}, want: ErrMaintenanceActive},
		{name: "not loaded", cmd: CommandLampOn, active: nil, want: ErrConfigNotLoaded},
		{name: "unknown", cmd: "SELF_DESTRUCT", active: &models.Configuration{}, want: ErrUnknownCommand},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := g.Check(tc.cmd, tc.active)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Check(%q) = %v; want %v", tc.cmd, err, tc.want)
			}
		})
	}

	if got := len(g.Commands()); got != 7 {
		t.Fatalf("commands = %d; want 7", got)
	}
}

func TestPresetCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultPresetCatalog()
	p, ok := c.Resolve(" ayam ")
	if !ok {
		t.Fatalf("AYAM should resolve")
	}
	if p.TargetTempLow != 37.5 || p.TargetTempHigh != 38.0 || p.TargetHumLow != 50.0 || p.ServoIntervalSeconds != 7200 {
		t.Fatalf("unexpected AYAM: %+v", p)
	}
	if _, ok := c.Resolve("PUYUH"); ok {
		t.Fatalf("unknown preset should not resolve")
	}

	list := c.List()
	if len(list) != 2 || list[0].Name != "AYAM" || list[1].Name != "BEBEK" {
		t.Fatalf("unexpected list: %+v", list)
	}

	custom := NewPresetCatalog(
		models.Preset{Name: "puyuh", ServoIntervalSeconds: 3600},
		models.Preset{Name: ""},
		models.Preset{Name: "PUYUH", ServoIntervalSeconds: 1800},
	)
	if got := custom.List(); len(got) != 1 || got[0].ServoIntervalSeconds != 1800 {
		t.Fatalf("later duplicate should win, got %+v", got)
	}
}
