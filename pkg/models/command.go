package models

// RoverCommand is a control message forwarded to the rover over the broker
type RoverCommand struct {
	Command string `json:"command"`
	Speed   int    `json:"speed"`
}

// CommandResponse reports what happened to a submitted command
type CommandResponse struct {
	Status    string `json:"status"`
	Command   string `json:"command"`
	Speed     int    `json:"speed,omitempty"`
	Published bool   `json:"published"`
	Reason    string `json:"reason,omitempty"` // e.g. "throttled"
}

// ControlStatus describes the broker connection
type ControlStatus struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
	Topic     string `json:"topic,omitempty"`
}
