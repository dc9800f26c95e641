package handlers

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/utils"
)

const (
	flowLogin    = "login"
	flowRegister = "register"

	stateCookie = "oauth_state"
)

// GenerateState creates an OAuth state string carrying the sign-in flow.
// The random prefix makes each state unique; the same value is stored in a
// cookie and compared on callback.
func GenerateState(flow string) (string, error) {
	randomPart, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate state")
	}

	payloadBytes, err := json.Marshal(map[string]string{"flow": flow})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal state data")
	}
	payloadPart := base64.RawURLEncoding.EncodeToString(payloadBytes)

	return randomPart + "." + payloadPart, nil
}

// DecodeState returns the flow stored in a state string.
func DecodeState(state string) (string, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", errors.New("invalid state format")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", errors.Wrap(err, "failed to decode state payload")
	}

	var data map[string]string
	if err := json.Unmarshal(payloadBytes, &data); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal state JSON")
	}

	switch flow := data["flow"]; flow {
	case flowLogin, flowRegister:
		return flow, nil
	default:
		return "", errors.Errorf("unknown flow %q", flow)
	}
}
