package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andersonfds/freitool/core"
)

// JSONRequest builds an authorized request with payload encoded as the body.
// A nil payload sends no body.
func JSONRequest(method string, url string, credential core.Credential, payload any) (core.TransportRequest, error) {
	req := core.TransportRequest{
		Method: method,
		URL:    url,
		Headers: map[string]string{
			"Accept": "application/json",
		},
	}
	if strings.TrimSpace(credential.Token) != "" {
		req.Headers["Authorization"] = credential.AuthorizationHeader()
	}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return core.TransportRequest{}, core.TransportError(err, fmt.Sprintf("transport: encode %s %s payload", method, url))
	}
	req.Body = body
	req.Headers["Content-Type"] = "application/json"
	return req, nil
}

// CheckResponse converts a non-2xx response into an API error carrying the
// raw body.
func CheckResponse(operation string, res core.TransportResponse) error {
	if res.Success() {
		return nil
	}
	return core.APIError(operation, res.StatusCode, res.Body)
}

// DecodeJSON parses body into target. Malformed bodies are transport errors.
func DecodeJSON(operation string, body []byte, target any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return core.TransportError(nil, operation+": empty response body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return core.TransportError(err, operation+": decode response body")
	}
	return nil
}

