// Package policy decides whether an actor may mutate a record. The only rule
// today is ownership, but decisions are expressed as combinable conclusions
// so additional statements can be layered in without changing callers.
package policy

import "github.com/promptloom/promptloom/internal/domain"

type Decision int

const (
	UNSET Decision = iota
	ALLOW
	DENY
)

func (d Decision) Or(other Decision) Decision {
	if d == UNSET {
		return other
	}
	if other == UNSET {
		return d
	}
	if d == DENY || other == DENY {
		return DENY
	}
	return ALLOW
}

// RequestContext carries everything a statement may inspect.
type RequestContext struct {
	Actor  *domain.Actor
	Record domain.Record
}

type Statement func(RequestContext) Decision

// Ownership allows mutation only when the actor is the record's owner.
func Ownership(ctx RequestContext) Decision {
	if ctx.Actor == nil {
		return DENY
	}
	if ctx.Actor.ID == ctx.Record.UserID {
		return ALLOW
	}
	return DENY
}

var mutationStatements = []Statement{Ownership}

// CanMutate evaluates the mutation statements against the request. An actor
// must exist and own the record; any DENY conclusion wins.
func CanMutate(actor *domain.Actor, record domain.Record) bool {
	ctx := RequestContext{Actor: actor, Record: record}
	conclusion := UNSET
	for _, stmt := range mutationStatements {
		conclusion = conclusion.Or(stmt(ctx))
		if conclusion == DENY {
			return false
		}
	}
	return conclusion == ALLOW
}

// Authorize maps a mutation request to the domain error taxonomy: missing
// actor is a NotAuthenticated condition, wrong owner is NotAuthorized, and
// an allowed request returns nil.
func Authorize(actor *domain.Actor, record domain.Record) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if !CanMutate(actor, record) {
		return domain.NotAuthorizedError{Actor: actor.ID, Resource: record.ID}
	}
	return nil
}
