package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/user"
)

type memoryStore struct {
	mu     sync.Mutex
	byName map[string]*user.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byName: map[string]*user.User{}}
}

func (m *memoryStore) Create(_ context.Context, username, passwordHash string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return nil, user.ErrAlreadyExists
	}
	u := &user.User{
		ID:           fmt.Sprintf("id-%d", len(m.byName)+1),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.byName[username] = u
	return u, nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memoryStore) GetByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byName[username]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func newTestService(t *testing.T) (*Service, *session.Issuer) {
	t.Helper()
	issuer := session.NewIssuer("test-secret", time.Hour)
	return NewService(user.NewService(newMemoryStore()), issuer), issuer
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret-pass")

	ok, err := VerifyPassword("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"bcrypt$1$2$3$4$5",
		"argon2id$x$65536$4$c2FsdA$aGFzaA",
		"argon2id$1$65536$0$c2FsdA$aGFzaA",
		"argon2id$1$65536$4$!!$aGFzaA",
	} {
		_, err := VerifyPassword("whatever", encoded)
		assert.ErrorIs(t, err, errMalformedHash, encoded)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, issuer := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	token, got, err := svc.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	p, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, session.Principal{UserID: u.ID, Username: "alice"}, p)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "al", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = svc.Register(ctx, "bad name", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = svc.Register(ctx, "alice", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "another password")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "mallory", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUserStillVerifies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)

	var hashes []string
	svc.verify = func(password, encoded string) (bool, error) {
		hashes = append(hashes, encoded)
		return VerifyPassword(password, encoded)
	}

	_, _, err = svc.Login(ctx, "mallory", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	assert.True(t, strings.HasPrefix(hashes[0], "argon2id$"))

	_, _, err = svc.Login(ctx, "alice", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 2)
	assert.NotEqual(t, hashes[0], hashes[1])
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlerRegisterLoginLogout(t *testing.T) {
	svc, issuer := newTestService(t)
	h := NewHandler(svc, time.Hour, true)
	creds := map[string]string{"username": "alice", "password": "correct horse"}

	rec := postJSON(t, h.Register, creds)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")

	rec = postJSON(t, h.Register, creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postJSON(t, h.Login, creds)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 3600, cookie.MaxAge)

	p, err := issuer.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, cookie.Value, body.Data.Token)

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, session.CookieName, cleared[0].Name)
	assert.Empty(t, cleared[0].Value)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestHandlerLoginFailures(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc, time.Hour, false)

	rec := postJSON(t, h.Login, map[string]string{"username": "ghost", "password": "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Register, map[string]string{"username": "alice", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
