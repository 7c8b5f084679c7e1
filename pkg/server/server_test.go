package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/activity"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/client"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/config"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Base64 of the literal key "secret".
const testWebhookSecret = "c2VjcmV0"

func testVerifier(t *testing.T) *signature.Verifier {
	t.Helper()
	v, err := signature.NewVerifier(testWebhookSecret, config.SecretEncodingBase64)
	require.NoError(t, err)
	return v
}

func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
	req.Header.Set("Authorization", "HMAC "+base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return req
}

func TestMessagesHandler(t *testing.T) {
	assert := assert.New(t)
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), nil)

	body := []byte(`{"type":"message","id":"m1","from":{"id":"29:user","name":"User"},"recipient":{"id":"28:bot","name":"Bot"},"conversation":{"id":"conv"},"text":"hello"}`)
	rec := httptest.NewRecorder()
	s.messagesHandler(rec, signedRequest(t, body))

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))

	var reply activity.Activity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	assert.Equal("message", reply.Type)
	assert.NotEmpty(reply.ID)
	assert.Equal("29:user", reply.Recipient.ID, "Reply goes back to the sender")
	assert.Equal("28:bot", reply.From.ID)
	assert.NotEmpty(reply.Text)
}

func TestMessagesHandlerUnauthorized(t *testing.T) {
	assert := assert.New(t)
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), nil)

	body := []byte(`{"type":"message","text":"hello"}`)

	// Signature from a different key
	mac := hmac.New(sha256.New, []byte("wrongkey"))
	mac.Write(body)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
	req.Header.Set("Authorization", "HMAC "+base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	rec := httptest.NewRecorder()
	s.messagesHandler(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)
	assert.Empty(rec.Body.String(), "An unauthenticated caller gets no diagnostics")
}

func TestMessagesHandlerMissingHeader(t *testing.T) {
	assert := assert.New(t)
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader([]byte(`{"type":"message"}`)))
	rec := httptest.NewRecorder()
	s.messagesHandler(rec, req)

	assert.Equal(http.StatusUnauthorized, rec.Code)
}

func TestMessagesHandlerInvalidActivity(t *testing.T) {
	assert := assert.New(t)
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), nil)

	// Correctly signed, but not an activity document.
	rec := httptest.NewRecorder()
	s.messagesHandler(rec, signedRequest(t, []byte("not json")))

	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestMessagesHandlerForwardsToSFMC(t *testing.T) {
	assert := assert.New(t)

	received := make(chan client.EventRequest, 1)
	sfmcServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/token":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"access_token":"testtoken","expires_in":3600}`))
		case "/interaction/v1/events":
			var event client.EventRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
			received <- event
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"eventInstanceId":"abc-123"}`))
		default:
			t.Errorf("unexpected request path '%s'", r.URL.Path)
		}
	}))
	defer sfmcServer.Close()

	sfmc := client.NewSFMCClient(config.SFMCConfig{
		AuthURL:            sfmcServer.URL,
		RestURL:            sfmcServer.URL,
		ClientID:           "testid",
		ClientSecret:       "testsecret",
		EventDefinitionKey: "teams-message",
	})
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), sfmc)

	body := []byte(`{"type":"message","id":"m1","from":{"id":"29:user","name":"User"},"recipient":{"id":"28:bot"},"conversation":{"id":"conv"},"text":"hello"}`)
	rec := httptest.NewRecorder()
	s.messagesHandler(rec, signedRequest(t, body))

	assert.Equal(http.StatusOK, rec.Code)
	event := <-received
	assert.Equal("29:user", event.ContactKey)
	assert.Equal("hello", event.Data.Text)
}

func TestMessagesHandlerForwardFailureStillReplies(t *testing.T) {
	assert := assert.New(t)

	sfmcServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer sfmcServer.Close()

	sfmc := client.NewSFMCClient(config.SFMCConfig{
		AuthURL:            sfmcServer.URL,
		RestURL:            sfmcServer.URL,
		ClientID:           "testid",
		ClientSecret:       "testsecret",
		EventDefinitionKey: "teams-message",
	})
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), sfmc)

	body := []byte(`{"type":"message","id":"m1","from":{"id":"29:user"},"text":"hello"}`)
	rec := httptest.NewRecorder()
	s.messagesHandler(rec, signedRequest(t, body))

	assert.Equal(http.StatusOK, rec.Code, "Forwarding problems must not bounce an authenticated webhook")

	var reply activity.Activity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	assert.Equal("message", reply.Type)
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)
	s := NewServer(config.ServerConfig{Port: 8080}, testVerifier(t), nil)

	rec := httptest.NewRecorder()
	s.handleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"status":"ok"}`, rec.Body.String())
}
