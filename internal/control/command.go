package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rovercam/pkg/models"
)

// Speed range used by the console: a held button ramps from base to max.
const (
	DefaultSpeed = 170
	MaxSpeed     = 255
)

var commandPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// movementCommands are sent as JSON with a speed; anything else goes out as
// a bare string.
var movementCommands = map[string]bool{
	"forward":      true,
	"backward":     true,
	"left":         true,
	"right":        true,
	"gas":          true,
	"stop":         true,
	"rotate-left":  true,
	"rotate-right": true,
	"kicker":       true,
}

var ErrEmptyCommand = errors.New("command is required")

// ParseCommand reads a command from a JSON object ({"command","speed"}) or a
// bare string body.
func ParseCommand(body []byte) (models.RoverCommand, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return models.RoverCommand{}, ErrEmptyCommand
	}

	var cmd models.RoverCommand
	if strings.HasPrefix(trimmed, "{") {
		var req struct {
			Command string `json:"command"`
			Speed   *int   `json:"speed"`
		}
		if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
			return models.RoverCommand{}, fmt.Errorf("invalid command body: %w", err)
		}
		cmd.Command = req.Command
		cmd.Speed = DefaultSpeed
		if req.Speed != nil {
			cmd.Speed = *req.Speed
		}
	} else {
		cmd.Command = trimmed
		cmd.Speed = DefaultSpeed
	}

	cmd.Command = strings.ToLower(strings.TrimSpace(cmd.Command))
	if cmd.Command == "" {
		return models.RoverCommand{}, ErrEmptyCommand
	}
	if !commandPattern.MatchString(cmd.Command) {
		return models.RoverCommand{}, fmt.Errorf("invalid command %q", cmd.Command)
	}
	if cmd.Speed < 0 || cmd.Speed > MaxSpeed {
		return models.RoverCommand{}, fmt.Errorf("speed must be between 0 and %d", MaxSpeed)
	}
	return cmd, nil
}

// IsMovement reports whether cmd carries a speed on the wire.
func IsMovement(cmd models.RoverCommand) bool {
	return movementCommands[cmd.Command]
}

// Payload encodes cmd the way the rover firmware expects it.
func Payload(cmd models.RoverCommand) []byte {
	if !IsMovement(cmd) {
		return []byte(cmd.Command)
	}
	b, _ := json.Marshal(cmd)
	return b
}
