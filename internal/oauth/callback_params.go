package oauth

import (
	"fmt"
	"net/url"
	"strings"
)

// Query parameter names the identity provider sends back on the redirect.
const (
	ParamCode             = "code"
	ParamState            = "state"
	ParamSessionState     = "session_state"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)

// requiredCallbackParams must all be present and non-empty on a successful redirect.
var requiredCallbackParams = []string{ParamCode, ParamState, ParamSessionState}

// AuthCode is the authorization code and state captured from the redirect.
type AuthCode struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// parseCallbackQuery splits rawQuery on '&' and percent-decodes each key and
// value. Unlike url.ParseQuery a literal '+' stays a '+' and ';' is data.
// The first occurrence of a key wins.
func parseCallbackQuery(rawQuery string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", rawKey, err)
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		values.Add(key, value)
	}
	return values, nil
}

// ParseCallback extracts the authorization code and state from the raw
// path+query captured by the callback listener, e.g.
// "callback?code=ABC&state=XYZ&session_state=1". A bare query string is
// accepted too.
func ParseCallback(raw string) (*AuthCode, error) {
	rawQuery := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		rawQuery = raw[i+1:]
	}
	// Fragments never reach the server, but strip one if a caller pasted a full URL.
	if i := strings.IndexByte(rawQuery, '#'); i >= 0 {
		rawQuery = rawQuery[:i]
	}

	values, err := parseCallbackQuery(rawQuery)
	if err != nil {
		return nil, &InvalidCallbackError{Reason: err}
	}

	if providerErr := values.Get(ParamError); providerErr != "" {
		return nil, &InvalidCallbackError{
			ProviderError:            providerErr,
			ProviderErrorDescription: values.Get(ParamErrorDescription),
		}
	}

	var missing []string
	for _, key := range requiredCallbackParams {
		if values.Get(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &InvalidCallbackError{Missing: missing}
	}

	return &AuthCode{
		Code:  values.Get(ParamCode),
		State: values.Get(ParamState),
	}, nil
}
