package game

import (
	"encoding/json"
	"fmt"
)

// Dispatch decodes one inbound frame from connID and applies it. Errors only
// describe malformed frames; the connection stays usable.
func (c *Coordinator) Dispatch(connID string, frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}

	switch env.Event {
	case EventCreateRoom:
		var req CreateRoomRequest
		if err := decodeData(env, &req); err != nil {
			return err
		}
		c.CreateRoom(connID, req.Name)

	case EventJoinRoom:
		var req JoinRoomRequest
		if err := decodeData(env, &req); err != nil {
			return err
		}
		c.JoinRoom(connID, req.RoomCode, req.Name)

	case EventToggleReady:
		var req ToggleReadyRequest
		if err := decodeData(env, &req); err != nil {
			return err
		}
		c.ToggleReady(connID, req.RoomCode)

	case EventUpdateProgress:
		var req UpdateProgressRequest
		if err := decodeData(env, &req); err != nil {
			return err
		}
		c.UpdateProgress(connID, req.RoomCode, req.Stats)

	case EventSendMessage:
		var req SendMessageRequest
		if err := decodeData(env, &req); err != nil {
			return err
		}
		c.SendMessage(connID, req.RoomCode, req.Message, req.PlayerName)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	return nil
}

func decodeData(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", env.Event, err)
	}
	return nil
}
