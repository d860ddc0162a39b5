package auth

import (
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"parkngo/internal/entities"
)

var ErrNotAuthenticated = errors.New("no session tokens stored")

type sessionClaims struct {
	UserID      int    `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// Session holds the signed-in user's token pair. Claims are decoded
// without signature verification: the server is the one verifying tokens,
// the client only reads display fields out of its own access token.
type Session struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) SetTokens(pair entities.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = pair.Access
	s.refresh = pair.Refresh
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
}

// Token returns the current access token; it satisfies the API client's
// TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// User decodes the access token's claims into the signed-in user.
func (s *Session) User() (*entities.User, error) {
	tok := s.Token()
	if tok == "" {
		return nil, ErrNotAuthenticated
	}
	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return nil, err
	}
	return &entities.User{
		UserID:      claims.UserID,
		FirstName:   claims.FirstName,
		LastName:    claims.LastName,
		PhoneNumber: claims.PhoneNumber,
	}, nil
}
