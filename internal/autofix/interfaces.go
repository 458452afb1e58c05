// internal/autofix/interfaces.go
package autofix

import (
	"context"
	"time"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// ClassifierInterface defines the contract for a component that turns a raw
// error report into a structured analysis. It never fails.
type ClassifierInterface interface {
	Classify(ctx context.Context, req schemas.ErrorFixRequest) schemas.ErrorAnalysis
}

// CacheInterface defines the contract for the validated-result cache.
type CacheInterface interface {
	Get(ctx context.Context, key string) (*schemas.RankedFixResult, bool)
	Set(ctx context.Context, key string, value *schemas.RankedFixResult, ttl time.Duration) error
}

// FixerInterface defines the contract consumed by the batch coordinator and
// the tool boundary.
type FixerInterface interface {
	// Fix runs the full pipeline. The error is non-nil only for malformed
	// requests; every other failure is reported inside the result.
	Fix(ctx context.Context, req schemas.ErrorFixRequest) (*schemas.RankedFixResult, error)
	// QuickFix returns a single unvalidated suggestion from the fast tier.
	QuickFix(ctx context.Context, req schemas.ErrorFixRequest) (*schemas.RankedFixResult, error)
	// Validate checks a fix directly, degrading inference failures to an
	// invalid verdict.
	Validate(ctx context.Context, in schemas.ValidationInput) (*schemas.ValidationResult, error)
}
