package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"nursehub-api/internal/auth"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// TokenFromRequest reads "Authorization: Bearer <token>", falling back to the
// session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireAdmin rejects requests without a valid session and stores the
// resolved identity in the request context.
func RequireAdmin(gate auth.Gate, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.Validate(r.Context(), TokenFromRequest(r))
			if err != nil {
				code, msg := http.StatusUnauthorized, "Unauthorized"
				if !errors.Is(err, auth.ErrUnauthenticated) {
					log.Error("session validation failed", zap.Error(err))
					code, msg = http.StatusInternalServerError, "Internal server error"
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				json.NewEncoder(w).Encode(map[string]string{"error": msg})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// Auth is the gRPC counterpart of RequireAdmin. Methods in open skip it.
func Auth(gate auth.Gate, open map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimPrefix(vals[0], "Bearer ")
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		id, err := gate.Validate(ctx, raw)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				return nil, status.Error(codes.Unauthenticated, "bad token")
			}
			return nil, status.Error(codes.Internal, "internal error")
		}
		return next(auth.WithIdentity(ctx, id), req)
	}
}
