package client

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/primecode/internal/dto"
)

type State int

const (
	StateUnresolved State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// Session holds the signed-in user and token for one client process. Every
// state change bumps a generation so a slower, older bootstrap cannot
// overwrite a newer login or logout.
//
// writeMu serializes each generation bump with its store write and the
// in-memory update, so the persisted token always matches the last change.
// Network calls happen outside it.
type Session struct {
	api   *Client
	store TokenStore
	log   logrus.FieldLogger

	writeMu sync.Mutex

	mu         sync.RWMutex
	state      State
	user       *dto.UserDTO
	token      string
	generation uint64
}

func NewSession(api *Client, store TokenStore, log logrus.FieldLogger) *Session {
	return &Session{
		api:   api,
		store: store,
		log:   log,
		state: StateUnresolved,
	}
}

// Bootstrap resolves the session from the persisted token. Any failure to
// confirm the token discards it and leaves the session anonymous.
func (s *Session) Bootstrap(ctx context.Context) State {
	s.writeMu.Lock()
	gen := s.bump()
	s.writeMu.Unlock()

	token, err := s.store.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to read stored token")
	}
	if token == "" {
		s.resolve(gen, StateAnonymous, nil, "")
		return s.State()
	}

	user, err := s.api.WithToken(token).Profile(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.current(gen) {
		return s.State()
	}
	if err != nil {
		s.log.WithError(err).Info("Stored token rejected; signing out")
		if err := s.store.Clear(ctx); err != nil {
			s.log.WithError(err).Warn("Failed to clear stored token")
		}
		s.resolve(gen, StateAnonymous, nil, "")
		return s.State()
	}

	s.resolve(gen, StateAuthenticated, user, token)
	return s.State()
}

func (s *Session) Login(ctx context.Context, req LoginRequest) (*dto.UserDTO, error) {
	res, err := s.api.WithToken("").Login(ctx, req)
	if err != nil {
		return nil, err
	}
	s.authenticate(ctx, res)
	return &res.User, nil
}

func (s *Session) Register(ctx context.Context, req RegisterRequest) (*dto.UserDTO, error) {
	res, err := s.api.WithToken("").Register(ctx, req)
	if err != nil {
		return nil, err
	}
	s.authenticate(ctx, res)
	return &res.User, nil
}

// Logout forgets the token locally. The server keeps no session to end.
func (s *Session) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	gen := s.bump()
	s.resolve(gen, StateAnonymous, nil, "")
	return s.store.Clear(ctx)
}

// SetUser replaces the signed-in user, e.g. after a profile update. It is a
// no-op unless the session is authenticated.
func (s *Session) SetUser(user dto.UserDTO) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return
	}
	s.generation++
	s.user = &user
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) User() (dto.UserDTO, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return dto.UserDTO{}, false
	}
	return *s.user, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) authenticate(ctx context.Context, res *dto.AuthResponse) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	gen := s.bump()
	if err := s.store.Save(ctx, res.Token); err != nil {
		s.log.WithError(err).Warn("Failed to persist token; session will not survive restart")
	}
	user := res.User
	s.resolve(gen, StateAuthenticated, &user, res.Token)
}

func (s *Session) bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *Session) current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == gen
}

// resolve applies a result only if no newer change happened since gen.
func (s *Session) resolve(gen uint64, state State, user *dto.UserDTO, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.state = state
	s.user = user
	s.token = token
	s.api.SetToken(token)
}
