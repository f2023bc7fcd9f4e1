package optimiser

import (
	"encoding/json"
	"os"
	"time"
)

// MoveEvent records one accepted vertex move.
type MoveEvent struct {
	MoveNumber int     `json:"move"`
	Node       int     `json:"node"`
	FromComm   int     `json:"from_comm"`
	ToComm     int     `json:"to_comm"`
	Gain       float64 `json:"gain"`
	Quality    float64 `json:"quality"`
	Timestamp  int64   `json:"timestamp"`
}

// MoveTracker appends accepted moves to a JSONL file for offline
// convergence analysis. A nil tracker is valid and discards everything.
type MoveTracker struct {
	file    *os.File
	encoder *json.Encoder
}

// NewMoveTracker creates a tracker writing to filename.
func NewMoveTracker(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &MoveTracker{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// LogMove records one accepted move.
func (mt *MoveTracker) LogMove(moveNum, node, fromComm, toComm int, gain, quality float64) {
	if mt == nil {
		return
	}
	_ = mt.encoder.Encode(MoveEvent{
		MoveNumber: moveNum,
		Node:       node,
		FromComm:   fromComm,
		ToComm:     toComm,
		Gain:       gain,
		Quality:    quality,
		Timestamp:  time.Now().Unix(),
	})
}

// Close flushes and closes the underlying file.
func (mt *MoveTracker) Close() {
	if mt != nil && mt.file != nil {
		mt.file.Close()
	}
}
