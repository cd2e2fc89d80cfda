package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"strings"

	"tourbook/internal/auth"
	"tourbook/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	permReadViews         = "read:views"
	permWriteCalendar     = "write:calendar"
	permWriteLikes        = "write:likes"
	clientKeyUnknown      = "unknown"
)

var (
	errMissingAPIKey    = errors.New("missing api key headers")
	errInvalidAPIKey    = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
	errRateLimited      = errors.New("rate limit exceeded")
)

// clientAuth checks service clients by api key plus a shared extra header
// and limits each key's request rate. HTTP and gRPC both use it.
type clientAuth struct {
	enabled      bool
	apiKeyHeader string
	extraHeader  string
	clients      map[string]config.APIClientKey
	limiter      *rateLimiter
}

func newClientAuth(cfg config.APIConfig) *clientAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}

	apiKeyHeader := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderAPIKey))
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	extraHeader := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderExtra))
	if extraHeader == "" {
		extraHeader = apiExtraHeaderDefault
	}

	return &clientAuth{
		enabled:      cfg.Auth.Enabled,
		apiKeyHeader: apiKeyHeader,
		extraHeader:  extraHeader,
		clients:      m,
		limiter:      newRateLimiter(cfg.RateLimit),
	}
}

func (a *clientAuth) authenticate(apiKey, extra, required string) error {
	if !a.enabled {
		return nil
	}
	if apiKey == "" || extra == "" {
		return errMissingAPIKey
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errInvalidExtra
	}
	return checkPermissions(client, required)
}

func checkPermissions(client config.APIClientKey, required string) error {
	if required == "" {
		return nil
	}

	// an empty permission list allows everything
	if len(client.Permissions) == 0 {
		return nil
	}

	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func (a *clientAuth) allow(key string) error {
	if !a.limiter.allow(key) {
		return errRateLimited
	}
	return nil
}

// AuthInterceptor applies client auth and rate limiting to gRPC calls.
type AuthInterceptor struct {
	auth *clientAuth
}

func NewAuthInterceptor(cfg config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{auth: newClientAuth(cfg)}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		if a.auth.enabled && md == nil {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKey := first(md.Get(a.auth.apiKeyHeader))
		extra := first(md.Get(a.auth.extraHeader))
		if err := a.auth.authenticate(apiKey, extra, requiredPermission(info.FullMethod)); err != nil {
			if errors.Is(err, errPermissionDenied) {
				return nil, status.Error(codes.PermissionDenied, err.Error())
			}
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		if err := a.auth.allow(clientKey(ctx, apiKey)); err != nil {
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}

		return handler(ctx, req)
	}
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case methodGetReservationList, methodGetPaymentReceipt, methodGetMapView:
		return permReadViews
	case methodSelectDate:
		return permWriteCalendar
	default:
		return ""
	}
}

func clientKey(ctx context.Context, apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return hostKey(p.Addr.String())
	}
	return clientKeyUnknown
}

// hostKey drops the port so reconnecting clients share one bucket.
func hostKey(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return clientKeyUnknown
}

// ViewerUnaryInterceptor resolves the end user from an "authorization:
// Bearer" metadata entry. Calls without a token stay anonymous; a bad
// token is rejected.
func ViewerUnaryInterceptor(validator auth.TokenValidator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if validator == nil {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		token := auth.ExtractBearerTokenFromHeader(first(md.Get("authorization")))
		if token == "" {
			return handler(ctx, req)
		}
		claims, err := validator.Validate(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid access token")
		}
		return handler(auth.WithViewer(ctx, auth.ViewerFromClaims(claims)), req)
	}
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
