package auth

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// State is the JSON value sent as the OAuth state parameter so the
// callback can tell which provider issued the redirect.
type State struct {
	Handler string `json:"handler"`
}

func EncodeState(handler string) string {
	b, _ := json.Marshal(State{Handler: handler})
	return string(b)
}

// ParseFragmentToken returns the access_token carried in the fragment of an
// implicit-flow callback URL.
func ParseFragmentToken(rawURL string) (string, error) {
	values, err := fragmentValues(rawURL)
	if err != nil {
		return "", err
	}

	token := values.Get("access_token")
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

// HandlerNameFromCallback reads the handler name from the state parameter of
// a callback URL. It returns "" when the state is missing or not ours.
func HandlerNameFromCallback(rawURL string) string {
	values, err := fragmentValues(rawURL)
	if err != nil {
		return ""
	}

	raw := values.Get("state")
	if raw == "" {
		return ""
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return ""
	}

	return st.Handler
}

func fragmentValues(rawURL string) (url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid callback url: %w", err)
	}

	if u.Fragment == "" {
		return nil, ErrNoToken
	}

	values, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return nil, fmt.Errorf("invalid callback fragment: %w", err)
	}

	return values, nil
}
