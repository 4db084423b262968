// query/mutation.go
package query

import (
	"context"

	"go.uber.org/zap"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
)

// Mutation is one write against the backend, with its optimistic
// cache patch and the resources whose caches it affects.
type Mutation struct {
	// Name appears in logs only.
	Name string
	// Optimistic patches the cache before the round trip so the UI
	// reflects the change immediately. Optional.
	Optimistic func(c *Cache)
	// Call performs the actual write.
	Call func(ctx context.Context) (interface{}, error)
	// Invalidates lists the resources whose cached entries the write
	// affects. They are invalidated whether the call succeeds or
	// fails: on failure the refetch supersedes the optimistic patch.
	Invalidates []string
}

// MutationResult is the classified outcome. Exactly one of the error
// presentations applies: FieldErrors when the backend returned a
// structured details list, otherwise Message. A view showing field
// errors must not also show a blanket banner.
type MutationResult struct {
	Data        interface{}
	Err         error
	FieldErrors []consoleerrors.FieldError
	Message     string
	Retryable   bool
}

// RunMutation executes the two-phase update: optimistic patch, then
// the write, then invalidation of every dependent cache.
func (c *Cache) RunMutation(ctx context.Context, m Mutation) MutationResult {
	if m.Optimistic != nil {
		m.Optimistic(c)
	}

	data, err := m.Call(ctx)
	c.Invalidate(m.Invalidates...)

	if err == nil {
		logger.Debug("Mutation succeeded", zap.String("mutation", m.Name))
		return MutationResult{Data: data}
	}

	logger.Warn("Mutation failed", zap.String("mutation", m.Name), zap.Error(err))
	result := MutationResult{Err: err}
	if details := consoleerrors.ValidationDetails(err); len(details) > 0 {
		result.FieldErrors = details
		return result
	}

	switch {
	case consoleerrors.IsNetworkError(err):
		result.Message = "could not reach the server, try again"
		result.Retryable = true
	case consoleerrors.IsAuthError(err):
		result.Message = "session expired, sign in again"
	case consoleerrors.IsNotFound(err):
		result.Message = "record no longer exists"
	default:
		result.Message = "the operation failed, no changes were saved"
	}
	return result
}
