package cunyfirst

import "net/http"

// Session holds the cookie and header state accumulated while walking
// the portal's login chain. The portal reissues session identity at
// specific points in the chain, hence Replace in addition to Merge.
// An empty session is valid and means "not logged in".
type Session struct {
	cookies map[string]string
	headers map[string]string
}

func NewSession(headers map[string]string) *Session {
	s := &Session{
		cookies: map[string]string{},
		headers: map[string]string{},
	}
	for k, v := range headers {
		s.headers[k] = v
	}
	return s
}

// Merge unions the given cookies into the session. New values override
// old ones on name collision.
func (s *Session) Merge(cookies []*http.Cookie) {
	for _, c := range cookies {
		s.cookies[c.Name] = c.Value
	}
}

// Replace discards all prior cookies before taking on the given ones.
func (s *Session) Replace(cookies []*http.Cookie) {
	s.cookies = map[string]string{}
	s.Merge(cookies)
}

func (s *Session) Cookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.cookies))
	for name, value := range s.cookies {
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}

func (s *Session) Headers() map[string]string {
	return s.headers
}

func (s *Session) Empty() bool {
	return len(s.cookies) == 0
}
