// internal/autofix/models.go
package autofix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// ErrInvalidRequest marks a request rejected before any work started.
var ErrInvalidRequest = errors.New("invalid fix request")

// Result details reported when the pipeline cannot produce a usable fix.
const (
	DetailNoValidFixes    = "no valid fixes generated"
	DetailNotValidated    = "recommended fix could not be validated"
	DetailQuickUnverified = "quick fix suggestions are not validated"
	detailCandidateFailed = "validation failed: "
	detailUnavailable     = "validation unavailable: "
)

// Ranking weights. A candidate's rank is the weighted sum of its validation
// score and its self-reported confidence.
const (
	validationWeight = 0.7
	confidenceWeight = 0.3
)

func validateRequest(req schemas.ErrorFixRequest) error {
	if strings.TrimSpace(req.ErrorMessage) == "" {
		return fmt.Errorf("%w: errorMessage is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidRequest)
	}
	return nil
}

func validateInput(in schemas.ValidationInput) error {
	if strings.TrimSpace(in.FixedCode) == "" {
		return fmt.Errorf("%w: fixedCode is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(in.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidRequest)
	}
	return nil
}
