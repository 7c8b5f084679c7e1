package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity is the subset of the Bot Framework activity schema the gateway
// consumes from Teams outgoing webhook calls.
type Activity struct {
	Type         string         `json:"type,omitempty"`
	ID           string         `json:"id,omitempty"`
	Timestamp    string         `json:"timestamp,omitempty"`
	ServiceURL   string         `json:"serviceUrl,omitempty"`
	ChannelID    string         `json:"channelId,omitempty"`
	From         ChannelAccount `json:"from,omitempty"`
	Conversation Conversation   `json:"conversation,omitempty"`
	Recipient    ChannelAccount `json:"recipient,omitempty"`
	Text         string         `json:"text,omitempty"`
	TextFormat   string         `json:"textFormat,omitempty"`
}

type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Conversation struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Parse decodes an authenticated request body into an Activity.
func Parse(body []byte) (Activity, error) {
	var a Activity
	err := json.Unmarshal(body, &a)
	if err != nil {
		return Activity{}, fmt.Errorf("failed to unmarshal activity: %w", err)
	}
	return a, nil
}

// NewReply builds the message activity returned synchronously to Teams.
// Sender and recipient of the inbound activity swap places.
func NewReply(in Activity, text string) Activity {
	return Activity{
		Type:         "message",
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		From:         in.Recipient,
		Conversation: in.Conversation,
		Recipient:    in.From,
		Text:         text,
	}
}
