package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/promptloom/promptloom/internal/domain"
	"github.com/promptloom/promptloom/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyActor resolves the bearer token, if any, and stashes the actor in
// the request context. A missing or invalid token is not an error here;
// mutation handlers refuse later when no actor is present.
func (s *AuthMiddleware) IdentifyActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyActor")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")
		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 || split[0] != "Bearer" {
				span.RecordError(errors.New("invalid authentication header"))
				goto skipCheckAuthorization
			}

			actor, err := s.auth.ResolveActor(ctx, split[1])
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyActor: token resolution failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.ActorCtxKey, actor)
			span.SetAttributes(attribute.String("ActorId", actor.ID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ActorFromContext returns the actor identified by the middleware, if any.
func ActorFromContext(ctx context.Context) *domain.Actor {
	actor, _ := ctx.Value(domain.ActorCtxKey).(*domain.Actor)
	return actor
}
