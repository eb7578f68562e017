package timify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Credential is the session cookie and API key pair every authenticated call needs.
type Credential struct {
	SessionToken string
	APIKey       string
}

// Link is a freshly created assessment instance.
type Link struct {
	ID    string
	Hash  string
	Label string
}

// LinkStatus is the completion view of one link inside a form.
type LinkStatus struct {
	ID         string
	Score      *string
	FinishedAt *string
}

// Finished reports whether the student submitted the assessment.
func (l LinkStatus) Finished() bool {
	return l.FinishedAt != nil
}

// Form is a remote page links are created against.
type Form struct {
	ID    string `json:"value"`
	Label string `json:"display_name"`
}

// CreateLinksRequest asks for one link per label on the given form.
type CreateLinksRequest struct {
	Labels     []string
	ExpiresIn  int
	ForceClose bool
	FormID     string
}

// RemoteError is the single failure shape returned by the client. StatusCode is
// zero when the request never produced an HTTP response.
type RemoteError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("timify %s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("timify %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("timify %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether the remote service rejected the credential.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	return remote.StatusCode == http.StatusUnauthorized || remote.StatusCode == http.StatusForbidden
}

// LinkURL builds the public URL a student follows to take the assessment.
func LinkURL(base, hash string) string {
	if hash == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + hash
}

type labelPayload struct {
	Text string `json:"text"`
}

type createLinksPayload struct {
	Labels     []labelPayload `json:"labels"`
	ExpiresIn  int            `json:"expiresIn"`
	ForceClose bool           `json:"forceClose"`
	PageID     interface{}    `json:"pageId"`
}

type createdLinkPayload struct {
	ID    json.RawMessage `json:"id"`
	Hash  string          `json:"hash"`
	Label string          `json:"label"`
}

type createLinksResponse struct {
	Links []createdLinkPayload `json:"links"`
}

type linkStatusPayload struct {
	ID         json.RawMessage `json:"id"`
	Score      json.RawMessage `json:"score"`
	FinishedAt json.RawMessage `json:"finishedAt"`
}

type linksHolder struct {
	Links []linkStatusPayload `json:"links"`
}

// formLinksResponse accepts both observed envelopes: {"page":{"links":[...]}} and {"links":[...]}.
type formLinksResponse struct {
	Page  *linksHolder        `json:"page"`
	Links []linkStatusPayload `json:"links"`
}

func (r formLinksResponse) links() []linkStatusPayload {
	if r.Page != nil && r.Page.Links != nil {
		return r.Page.Links
	}
	return r.Links
}

type sessionResponse struct {
	Session struct {
		APIToken string `json:"api_token"`
	} `json:"session"`
}

type formPayload struct {
	ID    json.RawMessage `json:"id"`
	Label string          `json:"label"`
}

type formsResponse struct {
	Pages []formPayload `json:"pages"`
}

// scalar renders a JSON string or number as text; null and absent values report false.
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}

func scalarPtr(raw json.RawMessage) *string {
	value, ok := scalar(raw)
	if !ok {
		return nil
	}
	return &value
}
