package ecs

import "errors"

// Construction and registration errors. All of them surface synchronously at
// the point of the invalid call; a malformed predicate has no recovery path
// other than fixing the query specification.
var (
	ErrNoBaseClause      = errors.New("query has no base clause (from, all, any or reverse required)")
	ErrFilterWithoutBase = errors.New("not/only are filters and require a base clause")
	ErrPersistStaticFrom = errors.New("query with a static from clause cannot be persisted")
	ErrPersistUnscoped   = errors.New("query not associated with a system cannot be persisted")
	ErrQueryDestroyed    = errors.New("query has been destroyed")
	ErrUnknownType       = errors.New("unknown type identifier")
	ErrTypeKindMismatch  = errors.New("type identifier registered with a different kind")
	ErrDuplicateEntity   = errors.New("entity id already in use")
	ErrEntityDestroyed   = errors.New("entity has been destroyed")
)
