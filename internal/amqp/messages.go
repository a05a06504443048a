package amqp

import (
	"encoding/json"
	"time"
)

// StatementSyncMessage announces that a statement's entries changed and
// its totals were recomputed. It carries only the ID and version; the
// audit worker fetches the statement from the database itself.
type StatementSyncMessage struct {
	StatementID string    `json:"statementId"`
	Version     int64     `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewStatementSyncMessage(statementID string, version int64) *StatementSyncMessage {
	return &StatementSyncMessage{
		StatementID: statementID,
		Version:     version,
		Timestamp:   time.Now(),
	}
}

func (m *StatementSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StatementSyncMessageFromJSON(data []byte) (*StatementSyncMessage, error) {
	var msg StatementSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
