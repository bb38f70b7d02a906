// Package access holds the caller identity and the read/write rules for
// user-owned persistent queries.
package access

// AnonymousOwner is the owner id recorded for queries created without a user.
const AnonymousOwner = "anonymous"

// Principal identifies the caller of an operation.
type Principal struct {
	UserID string
	Staff  bool
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal { return Principal{} }

// IsAnonymous reports whether no user is attached.
func (p Principal) IsAnonymous() bool { return p.UserID == "" }

// OwnerID is the owner id a new record gets when p creates it.
func (p Principal) OwnerID() string {
	if p.IsAnonymous() {
		return AnonymousOwner
	}
	return p.UserID
}

// Policy is the default Authorizer.
// AnonymousAccess opens reading of every query and lets anonymous callers create.
type Policy struct {
	AnonymousAccess bool
}

// CanRead reports whether p may read a record owned by ownerID.
func (pol Policy) CanRead(p Principal, ownerID string) bool {
	if p.Staff || pol.AnonymousAccess {
		return true
	}
	return !p.IsAnonymous() && p.UserID == ownerID
}

// CanWrite reports whether p may update or delete a record owned by ownerID.
func (pol Policy) CanWrite(p Principal, ownerID string) bool {
	if p.Staff {
		return true
	}
	return !p.IsAnonymous() && p.UserID == ownerID
}

// CanCreate reports whether p may create records.
func (pol Policy) CanCreate(p Principal) bool {
	return !p.IsAnonymous() || pol.AnonymousAccess
}

// CanListAll reports whether p may list every user's records.
func (pol Policy) CanListAll(p Principal) bool {
	return p.Staff
}
