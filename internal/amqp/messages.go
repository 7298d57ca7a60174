package amqp

import (
	"encoding/json"
	"time"

	"rentroll/internal/alerts"
)

// AlertMessage carries one scanned alert to downstream consumers.
type AlertMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Priority  string    `json:"priority"`
	SubjectID string    `json:"subject_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	DueDate   string    `json:"due_date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAlertMessage(a alerts.Alert) *AlertMessage {
	return &AlertMessage{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Priority:  string(a.Priority),
		SubjectID: a.SubjectID,
		Title:     a.Title,
		Message:   a.Message,
		DueDate:   a.DueDate.String(),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON decodes a message body.
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
