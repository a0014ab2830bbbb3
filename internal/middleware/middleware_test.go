package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/model"
)

type stubGate struct {
	token string
	err   error
}

func (g stubGate) Authenticate(context.Context, string, string) (*auth.Session, error) {
	return nil, errors.New("not used")
}

func (g stubGate) Validate(_ context.Context, token string) (*auth.Identity, error) {
	if g.err != nil {
		return nil, g.err
	}
	if token != g.token {
		return nil, auth.ErrUnauthenticated
	}
	return &auth.Identity{Admin: &model.Admin{Username: "nurse"}, SessionID: "s1"}, nil
}

func (g stubGate) Revoke(context.Context, string) error { return nil }

func whoami(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(id.Admin.Username))
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(stubGate{token: "good"}, zap.NewNop())(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "nurse", rec.Body.String())
			}
		})
	}
}

func TestRequireAdminGateFailure(t *testing.T) {
	h := RequireAdmin(stubGate{err: errors.New("db down")}, zap.NewNop())(http.HandlerFunc(whoami))
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Close()
	h := Limit(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	got := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		got = append(got, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, got)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSweepDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	rl.Allow("a")
	rl.sweep(-time.Second)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.clients)
}

func TestGRPCAuth(t *testing.T) {
	open := map[string]bool{"/svc/Login": true}
	icpt := Auth(stubGate{token: "good"}, open)
	next := func(ctx context.Context, _ any) (any, error) {
		id, ok := auth.FromContext(ctx)
		if !ok {
			return "anonymous", nil
		}
		return id.Admin.Username, nil
	}

	out, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Login"}, next)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", out)

	_, err = icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/List"}, next)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer bad"))
	_, err = icpt(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/List"}, next)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer good"))
	out, err = icpt(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/List"}, next)
	require.NoError(t, err)
	assert.Equal(t, "nurse", out)
}

func TestGRPCRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	icpt := RateLimit(rl, map[string]bool{"/svc/Login": true})
	next := func(context.Context, any) (any, error) { return nil, nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Login"}

	_, err := icpt(context.Background(), nil, info, next)
	require.NoError(t, err)
	_, err = icpt(context.Background(), nil, info, next)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Stats"}, next)
	assert.NoError(t, err)
}

func TestGRPCRateLimitKeysOnIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	icpt := RateLimit(rl, map[string]bool{"/svc/Login": true})
	next := func(context.Context, any) (any, error) { return nil, nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Login"}

	from := func(ip string, port int) context.Context {
		return peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: port}})
	}

	_, err := icpt(from("203.0.113.7", 40000), nil, info, next)
	require.NoError(t, err)
	for port := 40001; port < 40010; port++ {
		_, err = icpt(from("203.0.113.7", port), nil, info, next)
		assert.Equal(t, codes.ResourceExhausted, status.Code(err), "port %d", port)
	}

	_, err = icpt(from("198.51.100.2", 40000), nil, info, next)
	assert.NoError(t, err)
}
