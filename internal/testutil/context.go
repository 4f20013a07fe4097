package testutil

import (
	"context"

	"github.com/finvoice/finvoice/internal/types"
)

// DefaultUserID is the authenticated user every test context starts with.
const DefaultUserID = "user_test_owner"

func SetupContext() context.Context {
	return SetupContextFor(DefaultUserID)
}

// SetupContextFor builds a request context authenticated as the given user.
func SetupContextFor(userID string) context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, userID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
