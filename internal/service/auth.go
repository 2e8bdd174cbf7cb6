package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/promptloom/promptloom/internal/domain"
)

var tracer = otel.Tracer("auth")

// AuthService resolves bearer tokens to actors. The gallery does not
// provision sessions; tokens come from an external identity provider and are
// verified against a shared HMAC secret. Validated actors are cached under
// the token signature, in memcached when configured and in-process
// otherwise.
type AuthService struct {
	secret []byte
	mc     *memcache.Client
	local  *gocache.Cache
}

func NewAuthService(secret string, mc *memcache.Client) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		mc:     mc,
		local:  gocache.New(10*time.Minute, 15*time.Minute),
	}
}

// ResolveActor validates the token and returns the actor it identifies.
func (s *AuthService) ResolveActor(ctx context.Context, token string) (*domain.Actor, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.ResolveActor")
	defer span.End()

	if cached := s.lookup(token); cached != nil {
		return cached, nil
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "jwt validation failed")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims format")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.New("token carries no subject")
	}

	actor := &domain.Actor{ID: sub}
	if name, ok := claims["name"].(string); ok {
		actor.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		actor.Email = email
	}

	s.remember(token, actor, cacheTTL(claims))
	return actor, nil
}

func (s *AuthService) lookup(token string) *domain.Actor {
	if s.mc != nil {
		item, err := s.mc.Get(cacheKey(token))
		if err == nil {
			var actor domain.Actor
			if json.Unmarshal(item.Value, &actor) == nil {
				return &actor
			}
		}
		return nil
	}

	if cached, found := s.local.Get(cacheKey(token)); found {
		actor := cached.(domain.Actor)
		return &actor
	}
	return nil
}

func (s *AuthService) remember(token string, actor *domain.Actor, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if s.mc != nil {
		payload, err := json.Marshal(actor)
		if err != nil {
			return
		}
		s.mc.Set(&memcache.Item{
			Key:        cacheKey(token),
			Value:      payload,
			Expiration: int32(ttl / time.Second),
		})
		return
	}
	s.local.Set(cacheKey(token), *actor, ttl)
}

// cacheKey uses the token signature segment; memcached keys are limited to
// 250 bytes and the signature alone is both short and unforgeable.
func cacheKey(token string) string {
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			return "actor:" + token[i+1:]
		}
	}
	return "actor:" + token
}

func cacheTTL(claims jwt.MapClaims) time.Duration {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 10 * time.Minute
	}
	return time.Until(exp.Time)
}
