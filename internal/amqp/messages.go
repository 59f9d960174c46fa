package amqp

import (
	"encoding/json"
	"time"

	"finsight/internal/core"
)

// AnalysisCompletedMessage is a lightweight notification that an analysis
// snapshot was persisted. It carries only identifiers; consumers fetch the
// full snapshot from the database.
type AnalysisCompletedMessage struct {
	SnapshotID int64             `json:"snapshot_id"`
	UserID     int64             `json:"user_id"`
	Kind       core.AnalysisKind `json:"kind"`
	Timestamp  time.Time         `json:"timestamp"`
}

func NewAnalysisCompletedMessage(snapshotID, userID int64, kind core.AnalysisKind) *AnalysisCompletedMessage {
	return &AnalysisCompletedMessage{
		SnapshotID: snapshotID,
		UserID:     userID,
		Kind:       kind,
		Timestamp:  time.Now(),
	}
}

func (m *AnalysisCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AnalysisCompletedMessageFromJSON(data []byte) (*AnalysisCompletedMessage, error) {
	var msg AnalysisCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
