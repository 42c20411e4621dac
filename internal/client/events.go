package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event is a value emitted by the StreamClient. Connectivity events and
// decoded frames share the channel so consumers see them in order.
type Event interface {
	streamEvent()
}

// Connecting is emitted when a handshake starts. Attempt is the retry
// number (0 for an initial or user-requested connect).
type Connecting struct{ Attempt int }

// Connected is emitted when the handshake succeeds.
type Connected struct{}

// Disconnected is emitted when a connection attempt fails or an open
// connection closes.
type Disconnected struct{ Err error }

// ReconnectScheduled reports the next retry.
type ReconnectScheduled struct {
	Attempt int
	Delay   time.Duration
	At      time.Time
}

// GaveUp is emitted once the retry ceiling is reached. The client stays
// idle until Connect is called.
type GaveUp struct{ Attempts int }

// NewReport is a report that was just submitted. HighMatches is the
// number of strong matches the server found for it.
type NewReport struct {
	Report      Report
	HighMatches int
}

func (Connecting) streamEvent()         {}
func (Connected) streamEvent()          {}
func (Disconnected) streamEvent()       {}
func (ReconnectScheduled) streamEvent() {}
func (GaveUp) streamEvent()             {}
func (NewReport) streamEvent()          {}

// ErrMalformedFrame is returned by DecodeFrame for frames that cannot be
// used. Callers drop the frame and keep the connection open.
var ErrMalformedFrame = errors.New("malformed frame")

// DecodeFrame parses one event-stream frame. Unknown event kinds decode
// to (nil, nil). Known kinds with missing or invalid fields return
// ErrMalformedFrame.
func DecodeFrame(data []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch f.Event {
	case FrameNewReport:
		if f.Report == nil || f.Report.ID == 0 {
			return nil, fmt.Errorf("%w: new_report without report id", ErrMalformedFrame)
		}
		if f.HighMatches == nil || *f.HighMatches < 0 {
			return nil, fmt.Errorf("%w: new_report without valid high_matches", ErrMalformedFrame)
		}
		return NewReport{Report: *f.Report, HighMatches: *f.HighMatches}, nil
	}
	return nil, nil
}
