package websocket

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"codeberg.org/taleloom/server/internal/logger"
)

// builds an outbound message with the payload marshaled in place
func NewMessage(event string, payload any) (*Message, error) {
	msg := &Message{
		Event:     event,
		Timestamp: time.Now(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		msg.Payload = raw
	}

	return msg, nil
}

// decodes the message payload into v
func (m *Message) UnmarshalPayload(v any) error {
	if len(m.Payload) == 0 {
		return ErrInvalidMessage
	}

	return json.Unmarshal(m.Payload, v)
}

func getAllowedOrigins() []string {
	if envOrigins := os.Getenv("ALLOWED_ORIGINS"); envOrigins != "" {
		origins := strings.Split(envOrigins, ",")

		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}

		return origins
	}

	return []string{}
}

// CheckOrigin validates the Origin header of an upgrade request.
// Permissive outside production so local clients and tools can connect.
func CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	env := os.Getenv("ENVIRONMENT")

	if origin == "" {
		if env != "production" {
			return true
		}

		logger.Warn("websocket connection with no origin header")
		return false
	}

	if env != "production" {
		return true
	}

	allowedOrigins := getAllowedOrigins()

	if len(allowedOrigins) == 0 {
		logger.Warn("websocket origin rejected - ALLOWED_ORIGINS not configured",
			"origin", origin,
		)
		return false
	}

	if slices.Contains(allowedOrigins, origin) {
		return true
	}

	logger.Warn("websocket origin rejected - not in allowed origins",
		"origin", origin,
		"allowed_origins", allowedOrigins,
	)

	return false
}

// GenerateConnectionID returns an opaque unique connection identifier.
func GenerateConnectionID() (string, error) {
	bytes := make([]byte, 16)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}
