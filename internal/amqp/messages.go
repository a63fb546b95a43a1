package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys on the direct exchange.
const (
	RoutingSubscriptionChanged = "subscription.changed"
	RoutingPaymentReminder     = "payment.reminder"
)

// ChangeAction says what happened to a subscription.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

func (a ChangeAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// SubscriptionChangedMessage carries only the id and version; consumers
// read the current record from the primary store.
type SubscriptionChangedMessage struct {
	ID        int64        `json:"id"`
	Action    ChangeAction `json:"action"`
	Version   int64        `json:"version"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewSubscriptionChangedMessage(id int64, action ChangeAction, version int64) *SubscriptionChangedMessage {
	return &SubscriptionChangedMessage{
		ID:        id,
		Action:    action,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *SubscriptionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SubscriptionChangedMessageFromJSON(data []byte) (*SubscriptionChangedMessage, error) {
	var msg SubscriptionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Action.IsValid() {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}

// PaymentReminderMessage announces a payment due soon.
type PaymentReminderMessage struct {
	SubscriptionID int64     `json:"subscriptionId"`
	Name           string    `json:"name"`
	Amount         float64   `json:"amount"`
	KRWAmount      float64   `json:"krwAmount"`
	DueDate        string    `json:"dueDate"`
	DaysUntil      int       `json:"daysUntil"`
	Label          string    `json:"label"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m *PaymentReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentReminderMessageFromJSON(data []byte) (*PaymentReminderMessage, error) {
	var msg PaymentReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
