package service

import (
	"fmt"
	"strings"

	"smart_hatchery/internal/models"
)

// Actuator commands accepted by the device.
const (
	CommandLampOn    = "LAMP_ON"
	CommandLampOff   = "LAMP_OFF"
	CommandFanOn     = "FAN_ON"
	CommandFanOff    = "FAN_OFF"
	CommandServoTurn = "SERVO_TURN"
	CommandAllOff    = "ALL_OFF"
	CommandTestAll   = "TEST_ALL"
)

var actuatorCommands = []string{
	CommandLampOn,
	CommandLampOff,
	CommandFanOn,
	CommandFanOff,
	CommandServoTurn,
	CommandAllOff,
	CommandTestAll,
}

// CommandGate blocks actuator commands while the device is in maintenance.
type CommandGate struct {
	known map[string]struct{}
}

func NewCommandGate() *CommandGate {
	g := &CommandGate{known: make(map[string]struct{}, len(actuatorCommands))}
	for _, c := range actuatorCommands {
		g.known[c] = struct{}{}
	}
	return g
}

// CanSend is true iff an active configuration is loaded and it is not in
// maintenance.
func (g *CommandGate) CanSend(active *models.Configuration) bool {
	return active != nil && !active.IsMaintenance
}

// Check validates name and applies the gate. A nil error means the command
// may be sent.
func (g *CommandGate) Check(name string, active *models.Configuration) error {
	if _, ok := g.known[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if active == nil {
		return ErrConfigNotLoaded
	}
	if active.IsMaintenance {
		return ErrMaintenanceActive
	}
	return nil
}

func (g *CommandGate) Commands() []string {
	out := make([]string, len(actuatorCommands))
	copy(out, actuatorCommands)
	return out
}

func normalizeCommand(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
