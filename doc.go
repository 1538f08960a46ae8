// Package authmiddleware provides a fail-open JWT authentication filter for
// HTTP services, together with the token codec, request-scoped identity,
// OAuth2 authorization-request cookie store, and OAuth2 login-result
// bridging that make up a complete bearer-token authentication stack.
//
// The filter never denies a request: a valid bearer token installs an
// identity into the request context and everything else continues
// anonymously. Route-level authorization (RequireRoles) is the only place
// requests are rejected.
//
// Subpackages:
//
//   - token: issue and validate signed, expiring identity tokens
//   - identity: request-scoped principal carried in the context
//   - oauthstate: cookie-backed OAuth2 authorization-request correlation
//   - oauthbridge: exchange an OAuth2 login result for identity tokens
//   - tracecontext: defensive parsing of trace-context headers
//   - config: environment-bound configuration for the whole stack
//   - framework/echo, framework/gin, framework/grpc: framework adapters
package authmiddleware
