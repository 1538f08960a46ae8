// Package grpcauth adapts the fail-open authentication filter to gRPC
// servers: the bearer token is read from incoming metadata instead of an
// HTTP header, with the same opportunistic contract: a valid token installs
// an identity into the call context and everything else proceeds anonymously.
package grpcauth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/coreauth/go-auth-middleware/identity"
	"github.com/coreauth/go-auth-middleware/token"
)

// authorizationKey is the incoming metadata key carrying the bearer token.
const authorizationKey = "authorization"

// TokenExtractor extracts a token string from an incoming call context.
// The same contract as the HTTP extractor applies: ("", nil) when no token
// was presented, an error only for a malformed presentation attempt.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor reads a Bearer token from the authorization
// metadata key.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get(authorizationKey)
	if len(values) == 0 {
		return "", nil
	}

	parts := strings.Fields(values[0])
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("authorization metadata format must be Bearer {token}")
	}

	return parts[1], nil
}

// Interceptor provides opportunistic authentication for gRPC servers.
type Interceptor struct {
	codec     *token.Codec
	extractor TokenExtractor
}

// Option configures the Interceptor.
type Option func(*Interceptor) error

// WithTokenExtractor overrides how the token is read from the call context.
//
// Default: MetadataTokenExtractor.
func WithTokenExtractor(e TokenExtractor) Option {
	return func(i *Interceptor) error {
		if e == nil {
			return errors.New("tokenExtractor cannot be nil")
		}
		i.extractor = e
		return nil
	}
}

// New constructs an Interceptor validating tokens with the given codec.
func New(codec *token.Codec, opts ...Option) (*Interceptor, error) {
	if codec == nil {
		return nil, errors.New("codec cannot be nil")
	}

	i := &Interceptor{
		codec:     codec,
		extractor: MetadataTokenExtractor,
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that installs
// an identity for calls presenting a valid token and always invokes the
// handler regardless of outcome.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		return handler(i.authenticate(ctx), req)
	}
}

// StreamServerInterceptor returns the streaming counterpart of
// UnaryServerInterceptor.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		wrapped := &identityServerStream{ServerStream: ss, ctx: i.authenticate(ss.Context())}
		return handler(srv, wrapped)
	}
}

func (i *Interceptor) authenticate(ctx context.Context) context.Context {
	tokenString, err := i.extractor(ctx)
	if err != nil || tokenString == "" {
		return ctx
	}

	claims, err := i.codec.ParseAndValidate(tokenString)
	if err != nil {
		return ctx
	}

	return identity.WithIdentity(ctx, identity.Identity{
		Subject: claims.Subject,
		Roles:   claims.Roles,
	})
}

// identityServerStream overrides the stream context with the authenticated
// one.
type identityServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityServerStream) Context() context.Context { return s.ctx }
