package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
)

// SessionCookie is the cookie TikTok sets once an account is signed in.
const SessionCookie = "sessionid"

var (
	// ErrNoCookies means there is nothing usable in the cookie jar.
	ErrNoCookies = errors.New("auth: no stored cookies")
	// ErrInvalidCookies means the jar could not be parsed and was removed.
	ErrInvalidCookies = errors.New("auth: cookie file contains invalid JSON")
)

// CookieStore handles storage of TikTok session cookies
type CookieStore struct {
	path string
	now  func() time.Time
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Cookies    []*network.Cookie
	CapturedAt time.Time
	ExpiresAt  time.Time
}

// cookieFile is the on-disk layout of the jar.
type cookieFile struct {
	Cookies    []cookieRecord `json:"cookies"`
	CapturedAt time.Time      `json:"captured_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// cookieRecord keeps the cookie fields needed to restore a session. The
// protocol enums reject empty values when decoded, so they are stored as
// plain strings.
type cookieRecord struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	Session  bool    `json:"session"`
	SameSite string  `json:"sameSite,omitempty"`
}

func toRecord(c *network.Cookie) cookieRecord {
	return cookieRecord{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		Session:  c.Session,
		SameSite: string(c.SameSite),
	}
}

func (r cookieRecord) cookie() *network.Cookie {
	c := &network.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		Expires:  r.Expires,
		HTTPOnly: r.HTTPOnly,
		Secure:   r.Secure,
		Session:  r.Session,
	}
	switch s := network.CookieSameSite(r.SameSite); s {
	case network.CookieSameSiteStrict, network.CookieSameSiteLax, network.CookieSameSiteNone:
		c.SameSite = s
	}
	return c
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path, now: time.Now}
}

// Path returns the location of the cookie file
func (cs *CookieStore) Path() string {
	return cs.path
}

// Save persists cookies to disk, replacing whatever was stored
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if dir := filepath.Dir(cs.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	var expiresAt time.Time
	for _, c := range cookies {
		if c.Name == SessionCookie && !c.Session && c.Expires > 0 {
			expiresAt = time.Unix(int64(c.Expires), 0)
		}
	}

	file := cookieFile{
		Cookies:    make([]cookieRecord, 0, len(cookies)),
		CapturedAt: cs.now(),
		ExpiresAt:  expiresAt,
	}
	for _, c := range cookies {
		file.Cookies = append(file.Cookies, toRecord(c))
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk. A missing or empty jar returns
// ErrNoCookies. An unparsable jar is deleted and reported as
// ErrInvalidCookies. The legacy layout, a bare JSON array of cookies, is
// also accepted.
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCookies
		}
		return nil, err
	}

	var file cookieFile
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &file.Cookies)
	} else {
		err = json.Unmarshal(trimmed, &file)
	}
	if err != nil {
		if rmErr := os.Remove(cs.path); rmErr != nil {
			return nil, fmt.Errorf("%w (remove failed: %v)", ErrInvalidCookies, rmErr)
		}
		return nil, ErrInvalidCookies
	}

	if len(file.Cookies) == 0 {
		return nil, ErrNoCookies
	}

	stored := &StoredCookies{
		Cookies:    make([]*network.Cookie, 0, len(file.Cookies)),
		CapturedAt: file.CapturedAt,
		ExpiresAt:  file.ExpiresAt,
	}
	for _, r := range file.Cookies {
		stored.Cookies = append(stored.Cookies, r.cookie())
	}
	return stored, nil
}

// IsValid checks if stored cookies hold an unexpired session
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}

	for _, c := range stored.Cookies {
		if c.Name != SessionCookie || c.Value == "" {
			continue
		}
		if c.Session || c.Expires <= 0 {
			return true
		}
		return cs.now().Before(time.Unix(int64(c.Expires), 0))
	}

	return false
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// prepareForInjection adjusts stored cookies before they are set in the
// browser: SameSite=None is downgraded to Strict.
func prepareForInjection(cookies []*network.Cookie) []*network.Cookie {
	out := make([]*network.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cp := *c
		if cp.SameSite == network.CookieSameSiteNone {
			cp.SameSite = network.CookieSameSiteStrict
		}
		out = append(out, &cp)
	}
	return out
}
