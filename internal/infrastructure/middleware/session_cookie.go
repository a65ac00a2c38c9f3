package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookie writes and reads the signed credential cookie.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration

	codec *securecookie.SecureCookie
}

// NewSessionCookie derives the signing key from secret so the cookie MAC and
// the token signature never share a key. A zero maxAge writes session cookies
// and accepts signed values of any age.
func NewSessionCookie(name, domain string, secure bool, maxAge time.Duration, secret string) *SessionCookie {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("vidshare signed cookie"))

	codec := securecookie.New(mac.Sum(nil), nil)
	codec.SetSerializer(securecookie.NopEncoder{})
	codec.MaxAge(int(maxAge.Seconds()))

	return &SessionCookie{
		Name:   name,
		Domain: domain,
		Secure: secure,
		MaxAge: maxAge,
		codec:  codec,
	}
}

// Sign returns value with a timestamped MAC bound to the cookie name.
func (s *SessionCookie) Sign(value string) (string, error) {
	return s.codec.Encode(s.Name, []byte(value))
}

// Verify returns the signed value when the MAC matches and the signature has
// not outlived MaxAge.
func (s *SessionCookie) Verify(signed string) (string, bool) {
	var value []byte
	if err := s.codec.Decode(s.Name, signed, &value); err != nil {
		return "", false
	}
	return string(value), true
}

// Set stores token in the cookie.
func (s *SessionCookie) Set(w http.ResponseWriter, token string) error {
	signed, err := s.Sign(token)
	if err != nil {
		return err
	}
	cookie := s.base()
	cookie.Value = signed
	if s.MaxAge > 0 {
		cookie.MaxAge = int(s.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(s.MaxAge).UTC()
	}
	http.SetCookie(w, cookie)
	return nil
}

// Clear expires the cookie using the attributes it was set with.
func (s *SessionCookie) Clear(w http.ResponseWriter) {
	cookie := s.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, cookie)
}

// Read returns the verified token carried by r, if any.
func (s *SessionCookie) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return s.Verify(c.Value)
}

func (s *SessionCookie) base() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Path:     "/",
		Domain:   s.Domain,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
