package client

type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type,omitempty"`
}

type EventRequest struct {
	ContactKey         string    `json:"ContactKey"`
	EventDefinitionKey string    `json:"EventDefinitionKey"`
	Data               EventData `json:"Data"`
}

type EventData struct {
	MessageID    string `json:"MessageId,omitempty"`
	Conversation string `json:"Conversation,omitempty"`
	Sender       string `json:"Sender,omitempty"`
	Text         string `json:"Text,omitempty"`
	Timestamp    string `json:"Timestamp,omitempty"`
}

type EventResponse struct {
	EventInstanceID string `json:"eventInstanceId"`
}
