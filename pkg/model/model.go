// Package model defines the messages exchanged with a simulation client.
package model

import (
	"encoding/json"
	"errors"

	"pigeonflight/pkg/geo"
)

// MessageType tags every inbound and outbound message.
type MessageType string

const (
	TypeInit   MessageType = "init"
	TypePath   MessageType = "path"
	TypeUpdate MessageType = "update"
	TypeError  MessageType = "error"
)

// Event is any outbound message.
type Event interface {
	EventType() MessageType
}

// InitCommand starts a simulation between two points.
type InitCommand struct {
	Type  MessageType `json:"type"`
	Start *geo.Point  `json:"start"`
	End   *geo.Point  `json:"end"`
}

// NewInitCommand builds a well-formed init command.
func NewInitCommand(start, end geo.Point) InitCommand {
	return InitCommand{Type: TypeInit, Start: &start, End: &end}
}

// Validate checks the command before any grid work is done.
func (c *InitCommand) Validate() error {
	if c.Type != TypeInit {
		return &InvalidInputError{Field: "type", Reason: "expected \"init\", got \"" + string(c.Type) + "\""}
	}
	if err := validatePoint("start", c.Start); err != nil {
		return err
	}
	return validatePoint("end", c.End)
}

func validatePoint(field string, p *geo.Point) error {
	if p == nil {
		return &InvalidInputError{Field: field, Reason: "missing"}
	}
	if err := p.Validate(); err != nil {
		return &InvalidInputError{Field: field, Reason: err.Error(), Err: err}
	}
	return nil
}

// DecodeInit parses and validates an inbound init message.
func DecodeInit(data []byte) (InitCommand, error) {
	var cmd InitCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return cmd, &InvalidInputError{Field: typeErr.Field, Reason: "malformed", Err: err}
		}
		return cmd, &InvalidInputError{Field: "message", Reason: "malformed JSON", Err: err}
	}
	if err := cmd.Validate(); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// PathEvent carries the planned route, start to end. Sent once per init.
type PathEvent struct {
	Type MessageType `json:"type"`
	Path []geo.Point `json:"path"`
}

func (e PathEvent) EventType() MessageType { return TypePath }

// NewPathEvent wraps a path.
func NewPathEvent(path []geo.Point) PathEvent {
	return PathEvent{Type: TypePath, Path: path}
}

// UpdateEvent is one simulation tick.
type UpdateEvent struct {
	Type      MessageType `json:"type"`
	Position  geo.Point   `json:"pos"`
	Speed     float64     `json:"speed"`
	Energy    float64     `json:"energy"`
	Elevation float64     `json:"elev"`
}

func (e UpdateEvent) EventType() MessageType { return TypeUpdate }

// NewUpdateEvent builds a tick update.
func NewUpdateEvent(pos geo.Point, speed, energy, elev float64) UpdateEvent {
	return UpdateEvent{Type: TypeUpdate, Position: pos, Speed: speed, Energy: energy, Elevation: elev}
}

// ErrorEvent reports an init failure. It is never sent inside an update stream.
type ErrorEvent struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

func (e ErrorEvent) EventType() MessageType { return TypeError }

// NewErrorEvent wraps err.
func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: TypeError, Error: err.Error()}
}
