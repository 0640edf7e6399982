// Package credentials resolves account identities to cookie-file credentials
// and validates them before any expensive resources are committed. A blob that
// would make the browser driver fail late (no sessionid) is rejected here.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clippub/internal/services"
	"clippub/internal/textutil"
)

// sessionTokenMarker is the field a cookie blob must contain to count as an
// authenticated TikTok session.
const sessionTokenMarker = "sessionid"

// Cookie is one entry parsed from a Netscape-format cookie file.
type Cookie struct {
	Domain  string
	Path    string
	Secure  bool
	Expires time.Time
	Name    string
	Value   string
}

// Credential is a validated cookie blob for one account. It is read-only to
// downstream components and never outlives the request it was resolved for.
type Credential struct {
	Account string
	Path    string
	Cookies []Cookie
}

// Store resolves account identities to credential files under a single root.
type Store struct {
	root string
}

// NewStore constructs a credential store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Validate resolves the account identity to its cookie file and checks the
// blob's shape. The identity is sanitized before path construction so it can
// never escape the credential root.
func (s *Store) Validate(account string) (*Credential, error) {
	token := textutil.SanitizeToken(account)
	if token == "" {
		return nil, services.Wrap(services.ErrValidation, "credentials", "resolve", "account name is empty", nil)
	}

	path := filepath.Join(s.root, token+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrCredentialNotFound, "credentials", "resolve",
				fmt.Sprintf("no cookie file for account %s", token), nil)
		}
		return nil, services.Wrap(services.ErrCredentialNotFound, "credentials", "read",
			fmt.Sprintf("cookie file for account %s unreadable", token), err)
	}

	blob := string(data)
	if strings.TrimSpace(blob) == "" {
		return nil, services.Wrap(services.ErrCredentialEmpty, "credentials", "validate",
			fmt.Sprintf("cookie file for account %s is empty", token), nil)
	}
	if !strings.Contains(blob, sessionTokenMarker) {
		return nil, services.Wrap(services.ErrCredentialMalformed, "credentials", "validate",
			fmt.Sprintf("cookie file for account %s has no %s entry", token, sessionTokenMarker), nil)
	}

	return &Credential{
		Account: token,
		Path:    path,
		Cookies: parseCookies(blob),
	}, nil
}

// parseCookies reads Netscape cookie lines. Malformed lines are skipped; the
// sessionid presence check already ran against the raw blob.
func parseCookies(blob string) []Cookie {
	var cookies []Cookie
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		cookie := Cookie{
			Domain: strings.TrimSpace(fields[0]),
			Path:   strings.TrimSpace(fields[2]),
			Secure: strings.EqualFold(strings.TrimSpace(fields[3]), "TRUE"),
			Name:   strings.TrimSpace(fields[5]),
			Value:  strings.TrimSpace(fields[6]),
		}
		if epoch, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64); err == nil && epoch > 0 {
			cookie.Expires = time.Unix(epoch, 0)
		}
		if cookie.Name == "" {
			continue
		}
		cookies = append(cookies, cookie)
	}
	return cookies
}

// SessionCookie returns the session token cookie if it was parsed from the
// blob, which is the common case for well-formed exports.
func (c *Credential) SessionCookie() (Cookie, bool) {
	for _, cookie := range c.Cookies {
		if cookie.Name == sessionTokenMarker {
			return cookie, true
		}
	}
	return Cookie{}, false
}
