package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campuskit/campuskit/internal/credential"
	"github.com/campuskit/campuskit/internal/observability"
	"github.com/campuskit/campuskit/internal/platform/httpx"
	"github.com/campuskit/campuskit/internal/rbac"
	"github.com/campuskit/campuskit/internal/shared"
)

// Pipeline drives the ordered authentication steps for inbound requests and
// exposes route-level authorization guards. The first failing step
// terminates the request; no partial state is left behind.
type Pipeline struct {
	verifier  TokenVerifier
	blacklist *credential.TokenBlacklist
	repo      Repository
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPipeline constructs a Pipeline.
func NewPipeline(verifier TokenVerifier, blacklist *credential.TokenBlacklist, repo Repository, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		verifier:  verifier,
		blacklist: blacklist,
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
	}
}

// BearerToken extracts the bearer token from the Authorization header,
// returning an empty string when absent.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Resolve runs the token-to-actor steps in order: revocation check,
// signature/expiry verification, record load, actor construction. Every
// authentication failure wraps shared.ErrUnauthenticated with the specific
// reason.
func (p *Pipeline) Resolve(ctx context.Context, token string) (*rbac.Actor, shared.TokenInfo, error) {
	if token == "" {
		return nil, shared.TokenInfo{}, fmt.Errorf("%w: no token", shared.ErrUnauthenticated)
	}

	revoked, err := p.blacklist.Contains(ctx, token)
	if err != nil {
		return nil, shared.TokenInfo{}, err
	}
	if revoked {
		return nil, shared.TokenInfo{}, fmt.Errorf("%w: token revoked", shared.ErrUnauthenticated)
	}

	userID, expiresAt, err := p.verifier.Verify(token)
	if err != nil {
		return nil, shared.TokenInfo{}, fmt.Errorf("%w: invalid or expired token", shared.ErrUnauthenticated)
	}

	user, err := p.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.TokenInfo{}, fmt.Errorf("%w: user not found", shared.ErrUnauthenticated)
		}
		return nil, shared.TokenInfo{}, err
	}
	if !user.IsActive {
		return nil, shared.TokenInfo{}, fmt.Errorf("%w: account disabled", shared.ErrUnauthenticated)
	}

	actor, err := user.Actor()
	if err != nil {
		return nil, shared.TokenInfo{}, err
	}
	return actor, shared.TokenInfo{Raw: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves the bearer token and attaches the immutable actor to
// the request context. Requests without a resolvable actor never reach the
// wrapped handler.
func (p *Pipeline) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, info, err := p.Resolve(ctx, BearerToken(r))
		if err != nil {
			if !errors.Is(err, shared.ErrUnauthenticated) && p.logger != nil {
				p.logger.Error("resolve actor", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		ctx = shared.ContextWithActor(ctx, actor)
		ctx = shared.ContextWithToken(ctx, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole guards a route with a role check.
func (p *Pipeline) RequireRole(roles ...rbac.Role) func(http.Handler) http.Handler {
	return p.guard("role", func(actor *rbac.Actor, _ *http.Request) rbac.Decision {
		return rbac.CheckRole(actor, roles...)
	})
}

// RequireModule guards a route with a module permission check.
func (p *Pipeline) RequireModule(module rbac.Module, access rbac.Access) func(http.Handler) http.Handler {
	return p.guard("module", func(actor *rbac.Actor, _ *http.Request) rbac.Decision {
		return rbac.CheckModulePermission(actor, module, access)
	})
}

// RequireDepartment guards a route with a department access check against
// the named URL parameter.
func (p *Pipeline) RequireDepartment(urlParam string) func(http.Handler) http.Handler {
	return p.guard("department", func(actor *rbac.Actor, r *http.Request) rbac.Decision {
		return rbac.CheckDepartmentAccess(actor, chi.URLParam(r, urlParam))
	})
}

func (p *Pipeline) guard(check string, decide func(*rbac.Actor, *http.Request) rbac.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				httpx.RespondError(w, fmt.Errorf("%w: no token", shared.ErrUnauthenticated))
				return
			}
			decision := decide(actor, r)
			p.metrics.AuthzDecision(check, decision.Allowed())
			if !decision.Allowed() {
				httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
