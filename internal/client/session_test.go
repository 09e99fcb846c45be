package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/primecode/internal/dto"
	"github.com/yukikurage/primecode/internal/logger"
)

type SessionTestSuite struct {
	suite.Suite
	srv   *httptest.Server
	api   *Client
	store *SQLiteTokenStore
	sess  *Session
}

func (s *SessionTestSuite) SetupTest() {
	s.srv = newTestServer(s.T())
	s.api = newTestClient(s.srv)
	s.store = newTestStore(s.T())
	s.sess = NewSession(s.api, s.store, logger.Discard())
}

func (s *SessionTestSuite) register(email string) string {
	res, err := s.api.WithToken("").Register(s.T().Context(), RegisterRequest{Name: "Alex", Email: email, Password: "Password1"})
	s.Require().NoError(err)
	return res.Token
}

func (s *SessionTestSuite) TestBootstrap_NoToken() {
	s.Equal(StateUnresolved, s.sess.State())

	s.Equal(StateAnonymous, s.sess.Bootstrap(s.T().Context()))
	_, ok := s.sess.User()
	s.False(ok)
}

func (s *SessionTestSuite) TestBootstrap_ValidToken() {
	ctx := s.T().Context()
	token := s.register("alex@example.com")
	s.Require().NoError(s.store.Save(ctx, token))

	s.Equal(StateAuthenticated, s.sess.Bootstrap(ctx))

	user, ok := s.sess.User()
	s.Require().True(ok)
	s.Equal("alex@example.com", user.Email)
	s.Equal(token, s.sess.Token())
	s.Equal(token, s.api.Token())
}

func (s *SessionTestSuite) TestBootstrap_RejectedTokenIsDiscarded() {
	ctx := s.T().Context()
	s.Require().NoError(s.store.Save(ctx, "not-a-token"))

	s.Equal(StateAnonymous, s.sess.Bootstrap(ctx))

	stored, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Empty(stored)
	s.Empty(s.api.Token())
}

func (s *SessionTestSuite) TestLogin_PersistsToken() {
	ctx := s.T().Context()
	s.register("alex@example.com")

	user, err := s.sess.Login(ctx, LoginRequest{Email: "alex@example.com", Password: "Password1"})
	s.Require().NoError(err)
	s.Equal("Alex", user.Name)
	s.Equal(StateAuthenticated, s.sess.State())

	stored, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal(s.sess.Token(), stored)

	// A fresh session picks the token back up.
	next := NewSession(newTestClient(s.srv), s.store, logger.Discard())
	s.Equal(StateAuthenticated, next.Bootstrap(ctx))
}

func (s *SessionTestSuite) TestLogin_FailureLeavesStateUntouched() {
	ctx := s.T().Context()
	s.sess.Bootstrap(ctx)

	_, err := s.sess.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "Password1"})
	s.True(IsUnauthorized(err))
	s.Equal(StateAnonymous, s.sess.State())

	stored, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *SessionTestSuite) TestRegister_Authenticates() {
	ctx := s.T().Context()

	user, err := s.sess.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "Password1"})
	s.Require().NoError(err)
	s.Equal("sam@example.com", user.Email)
	s.Equal(StateAuthenticated, s.sess.State())

	_, err = s.sess.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "Password1"})
	s.Error(err)
	s.Equal(StateAuthenticated, s.sess.State())
}

func (s *SessionTestSuite) TestLogout() {
	ctx := s.T().Context()
	_, err := s.sess.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "Password1"})
	s.Require().NoError(err)

	s.Require().NoError(s.sess.Logout(ctx))
	s.Equal(StateAnonymous, s.sess.State())
	s.Empty(s.sess.Token())
	s.Empty(s.api.Token())

	stored, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Empty(stored)
}

func (s *SessionTestSuite) TestSetUser() {
	ctx := s.T().Context()

	s.sess.SetUser(dto.UserDTO{Name: "Nobody"})
	_, ok := s.sess.User()
	s.False(ok)

	_, err := s.sess.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "Password1"})
	s.Require().NoError(err)

	updated, err := s.api.UpdateProfile(ctx, ProfileRequest{Name: "Samantha"})
	s.Require().NoError(err)
	s.sess.SetUser(*updated)

	user, ok := s.sess.User()
	s.Require().True(ok)
	s.Equal("Samantha", user.Name)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

// slowProfileServer answers /profile only after release is closed, so a
// login can land while a bootstrap is still in flight.
type slowProfileServer struct {
	arrived chan struct{}
	release chan struct{}
	status  int
}

func (f *slowProfileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/profile":
		close(f.arrived)
		<-f.release
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "UNAUTHORIZED", "message": "Session expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(dto.UserResponse{User: dto.UserDTO{ID: "old", Name: "Old"}})
	case "/api/auth/login":
		_ = json.NewEncoder(w).Encode(dto.AuthResponse{Token: "new-token", User: dto.UserDTO{ID: "new", Name: "New"}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestSession_StaleBootstrapIsDropped(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			fake := &slowProfileServer{arrived: make(chan struct{}), release: make(chan struct{}), status: status}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			ctx := t.Context()
			store := newTestStore(t)
			require.NoError(t, store.Save(ctx, "old-token"))
			sess := NewSession(New(srv.URL+"/api", 5*time.Second), store, logger.Discard())

			done := make(chan State)
			go func() {
				done <- sess.Bootstrap(ctx)
			}()

			select {
			case <-fake.arrived:
			case <-time.After(5 * time.Second):
				t.Fatal("bootstrap never reached the server")
			}

			_, err := sess.Login(ctx, LoginRequest{Email: "new@example.com", Password: "Password1"})
			require.NoError(t, err)

			close(fake.release)
			assert.Equal(t, StateAuthenticated, <-done)

			user, ok := sess.User()
			require.True(t, ok)
			assert.Equal(t, "New", user.Name)
			assert.Equal(t, "new-token", sess.Token())

			stored, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "new-token", stored)
		})
	}
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (string, error) { return "", errors.New("disk gone") }
func (brokenStore) Save(context.Context, string) error    { return errors.New("disk gone") }
func (brokenStore) Clear(context.Context) error           { return errors.New("disk gone") }

func TestSession_StoreFailures(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	sess := NewSession(newTestClient(srv), brokenStore{}, logger.Discard())

	assert.Equal(t, StateAnonymous, sess.Bootstrap(ctx))

	_, err := sess.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "Password1"})
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, sess.State())

	assert.Error(t, sess.Logout(ctx))
	assert.Equal(t, StateAnonymous, sess.State())
}

// gatedStore pauses the gated operation until release is closed.
type gatedStore struct {
	TokenStore
	gate    string
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(inner TokenStore, gate string) *gatedStore {
	return &gatedStore{TokenStore: inner, gate: gate, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) wait(op string) {
	if op != g.gate {
		return
	}
	g.gate = ""
	close(g.entered)
	<-g.release
}

func (g *gatedStore) Save(ctx context.Context, token string) error {
	g.wait("save")
	return g.TokenStore.Save(ctx, token)
}

func (g *gatedStore) Clear(ctx context.Context) error {
	g.wait("clear")
	return g.TokenStore.Clear(ctx)
}

func awaitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestSession_LogoutDuringLoginSave(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	api := newTestClient(srv)
	_, err := api.Register(ctx, RegisterRequest{Name: "Alex", Email: "alex@example.com", Password: "Password1"})
	require.NoError(t, err)

	inner := newTestStore(t)
	store := newGatedStore(inner, "save")
	sess := NewSession(api, store, logger.Discard())

	loginDone := make(chan struct{})
	go func() {
		defer close(loginDone)
		_, err := sess.Login(ctx, LoginRequest{Email: "alex@example.com", Password: "Password1"})
		assert.NoError(t, err)
	}()
	awaitSignal(t, store.entered, "login to start saving")

	logoutDone := make(chan error, 1)
	go func() {
		logoutDone <- sess.Logout(ctx)
	}()

	// Logout queues behind the pending save instead of overtaking it.
	select {
	case <-logoutDone:
		t.Fatal("logout finished while login was still saving")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	awaitSignal(t, loginDone, "login")
	require.NoError(t, <-logoutDone)

	assert.Equal(t, StateAnonymous, sess.State())
	stored, err := inner.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	next := NewSession(newTestClient(srv), inner, logger.Discard())
	assert.Equal(t, StateAnonymous, next.Bootstrap(ctx))
}

func TestSession_LoginDuringBootstrapClear(t *testing.T) {
	srv := newTestServer(t)
	ctx := t.Context()
	api := newTestClient(srv)
	_, err := api.Register(ctx, RegisterRequest{Name: "Alex", Email: "alex@example.com", Password: "Password1"})
	require.NoError(t, err)

	inner := newTestStore(t)
	require.NoError(t, inner.Save(ctx, "rejected-token"))
	store := newGatedStore(inner, "clear")
	sess := NewSession(api, store, logger.Discard())

	bootDone := make(chan struct{})
	go func() {
		defer close(bootDone)
		sess.Bootstrap(ctx)
	}()
	awaitSignal(t, store.entered, "bootstrap to start clearing")

	loginDone := make(chan struct{})
	go func() {
		defer close(loginDone)
		_, err := sess.Login(ctx, LoginRequest{Email: "alex@example.com", Password: "Password1"})
		assert.NoError(t, err)
	}()

	// Let the login request (bcrypt included) reach its store write.
	time.Sleep(200 * time.Millisecond)
	close(store.release)
	awaitSignal(t, bootDone, "bootstrap")
	awaitSignal(t, loginDone, "login")

	assert.Equal(t, StateAuthenticated, sess.State())
	stored, err := inner.Load(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
	assert.Equal(t, sess.Token(), stored)
}
