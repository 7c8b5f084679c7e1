package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/activity"
	"github.com/golang-jwt/jwt/v5"
)

// Insert an event into Journey Builder for the sender of the activity.
// API endpoint: POST /interaction/v1/events
func (c *SFMCClient) PostEvent(a activity.Activity) error {
	token, err := c.getToken()
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	event := EventRequest{
		ContactKey:         a.From.ID,
		EventDefinitionKey: c.EventDefinitionKey,
		Data: EventData{
			MessageID:    a.ID,
			Conversation: a.Conversation.ID,
			Sender:       a.From.Name,
			Text:         a.Text,
			Timestamp:    a.Timestamp,
		},
	}

	var body []byte
	if c.JWTSecret != "" {
		body, err = c.signedPayload(event)
	} else {
		body, err = json.Marshal(event)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.RestURL+"/interaction/v1/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request for event insert: %w", err)
	}
	commonHeaders(req, token)
	req.Body = io.NopCloser(bytes.NewReader(body))

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to insert event, status code: %d", res.StatusCode)
	}

	var created EventResponse
	err = json.NewDecoder(res.Body).Decode(&created)
	if err != nil {
		slog.Warn("Failed to decode event insert response", slog.String("error", err.Error()))
	} else {
		slog.Debug("Event inserted", slog.String("eventInstanceId", created.EventInstanceID))
	}
	return nil
}

// Wrap the event in an HS256-signed JWT for legacy App Center integrations
// that verify forwarded payloads with the app signing secret.
func (c *SFMCClient) signedPayload(event EventRequest) ([]byte, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		// Use time of 30s earlier to avoid clock skew issues
		"iat": jwt.NewNumericDate(time.Now().Add(time.Second * -30)),
		// The payload is consumed immediately, so it should expire relatively soon
		"exp":     jwt.NewNumericDate(time.Now().Add(time.Minute * 5)),
		"request": event,
	})
	signed, err := token.SignedString([]byte(c.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign event payload: %w", err)
	}
	return json.Marshal(map[string]string{"jwt": signed})
}
