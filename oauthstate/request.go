package oauthstate

import (
	"encoding/base64"
	"encoding/json"
)

// payloadVersion is the current cookie payload encoding version. Decoding
// rejects payloads carrying any other version.
const payloadVersion = 1

// AuthorizationRequest is the provider-defined state of a pending OAuth2
// authorization-code exchange: everything needed to correlate the callback
// leg with the request that started the flow.
type AuthorizationRequest struct {
	Provider         string            `json:"provider,omitempty"`
	ClientID         string            `json:"client_id,omitempty"`
	AuthorizationURL string            `json:"authorization_url,omitempty"`
	RedirectURI      string            `json:"redirect_uri,omitempty"`
	State            string            `json:"state,omitempty"`
	Scopes           []string          `json:"scopes,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// payload is the versioned envelope written to the cookie. The explicit
// version field keeps the serialized form self-describing and portable
// across releases.
type payload struct {
	Version int                  `json:"v"`
	Request AuthorizationRequest `json:"req"`
}

// encode serializes the authorization request to a URL-safe cookie value.
func encode(req *AuthorizationRequest) (string, error) {
	raw, err := json.Marshal(payload{Version: payloadVersion, Request: *req})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decode deserializes a cookie value back into an authorization request.
// Corrupt encodings and unknown versions yield nil: a bad cookie is
// equivalent to no pending flow, never an error.
func decode(value string) *AuthorizationRequest {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	if p.Version != payloadVersion {
		return nil
	}

	return &p.Request
}
