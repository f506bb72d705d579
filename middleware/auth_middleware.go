package middleware

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stylecart/api-gateway/auth"
	"github.com/stylecart/api-gateway/authz"
	"github.com/stylecart/api-gateway/utils"
)

// AuthMiddleware runs the credential verification and authorization chain in
// front of protected routes. It is importable by any service, so the same
// chain works whether auth is enforced at the gateway or inside a service.
type AuthMiddleware struct {
	verifier auth.CredentialVerifier
	engine   *authz.Engine
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(verifier auth.CredentialVerifier, engine *authz.Engine, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		engine:   engine,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a valid bearer credential and attaches
// the resolved identity to the context. No upstream is contacted when the
// header is missing outright.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimw.GetReqID(ctx)

		credential, err := auth.ExtractBearer(r)
		if err != nil {
			m.logger.Warn("missing credential",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing or malformed authorization header")
			return
		}

		id, err := m.verifier.Verify(ctx, credential)
		if err != nil {
			m.writeVerifyError(w, requestID, err)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", id.UserID),
			zap.String("role", id.Role))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

// OptionalAuth resolves an identity when a valid credential is present and
// proceeds anonymously otherwise. Verification failures are swallowed; this
// path never produces an HTTP error.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		credential, err := auth.ExtractBearer(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.verifier.Verify(ctx, credential)
		if err != nil {
			m.logger.Debug("optional auth failed, proceeding anonymously",
				zap.String("request_id", chimw.GetReqID(ctx)),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

// RequirePolicy enforces a role policy. Must run after RequireAuth.
func (m *AuthMiddleware) RequirePolicy(policy authz.RolePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if err := authz.Authorize(id, policy); err != nil {
				m.writeAuthzError(w, r, err, policy.Roles)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner enforces an owner-or-privileged policy, reading the resource
// owner id from the named chi URL parameter. Must run after RequireAuth.
// Requests without the parameter (collection routes) pass the role gate only
// when privileged; identities that own nothing are denied.
func (m *AuthMiddleware) RequireOwner(param string, policy authz.OwnerPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := IdentityFromContext(ctx)
			ownerID := chi.URLParam(r, param)

			if err := m.engine.AuthorizeOwner(ctx, id, ownerID, policy); err != nil {
				m.writeAuthzError(w, r, err, policy.PrivilegedRoles)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) writeVerifyError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		m.logger.Warn("token verification failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		m.logger.Error("identity service unavailable during verification",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteServiceUnavailable(w, "user-service is currently unavailable", "")
	default:
		m.logger.Error("unexpected verification error",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "", "")
	}
}

func (m *AuthMiddleware) writeAuthzError(w http.ResponseWriter, r *http.Request, err error, roles []string) {
	requestID := chimw.GetReqID(r.Context())
	if errors.Is(err, auth.ErrUnauthenticated) {
		m.logger.Warn("authorization check without identity",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path))
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	m.logger.Warn("authorization denied",
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
		zap.Strings("required_roles", roles))
	_ = utils.WriteForbidden(w, "You do not have permission to access this resource")
}
