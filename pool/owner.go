package pool

import (
	"context"

	"github.com/google/uuid"
)

// Owner identifies the logical caller a handle is bound to. Every Acquire
// made with the same Owner on the context returns the same handle until
// it is released or reclaimed.
type Owner string

// NewOwner returns a fresh random owner identity.
func NewOwner() Owner {
	return Owner(uuid.NewString())
}

type ownerKey struct{}

// WithOwner returns a context carrying owner.
func WithOwner(ctx context.Context, owner Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom extracts the owner carried by ctx.
func OwnerFrom(ctx context.Context) (Owner, bool) {
	o, ok := ctx.Value(ownerKey{}).(Owner)
	return o, ok && o != ""
}
