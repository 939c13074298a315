package validation

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation limits
	MaxNodes     = 1000
	MaxLinks     = 20000
	MaxBatchSize = 64
	MinBatchSize = 1
)

var (
	// ErrInvalidRequest marks input that failed validation
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTooManyNodes is returned for graphs above the node limit
	ErrTooManyNodes = errors.New("too many nodes")
	// ErrTooManyLinks is returned for graphs above the link limit
	ErrTooManyLinks = errors.New("too many links")
)

func init() {
	validate = validator.New()
}

// ViewportRequest is the drawing surface of a layout request. Zero sizes
// are allowed and produce an empty layout.
type ViewportRequest struct {
	Width  float64 `json:"width" validate:"gte=0,lte=16384"`
	Height float64 `json:"height" validate:"gte=0,lte=16384"`
}

// ValidateGraph checks node and link counts against the limits and each
// node against its field rules. maxNodes <= 0 means MaxNodes.
func ValidateGraph(g *entitygraph.Graph, maxNodes int) error {
	if g == nil {
		return fmt.Errorf("%w: graph is required", ErrInvalidRequest)
	}
	if maxNodes <= 0 || maxNodes > MaxNodes {
		maxNodes = MaxNodes
	}

	if len(g.Nodes) > maxNodes {
		return fmt.Errorf("%w: %d nodes, limit is %d", ErrTooManyNodes, len(g.Nodes), maxNodes)
	}
	if len(g.Links) > MaxLinks {
		return fmt.Errorf("%w: %d links, limit is %d", ErrTooManyLinks, len(g.Links), MaxLinks)
	}

	if err := validate.Struct(g); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateViewport checks a requested viewport
func ValidateViewport(width, height float64) error {
	if err := validate.Struct(&ViewportRequest{Width: width, Height: height}); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateBatchSize validates the size of a batch request
func ValidateBatchSize(size int) error {
	if size < MinBatchSize {
		return fmt.Errorf("%w: batch size must be at least %d, got %d", ErrInvalidRequest, MinBatchSize, size)
	}
	if size > MaxBatchSize {
		return fmt.Errorf("%w: batch size must not exceed %d, got %d", ErrInvalidRequest, MaxBatchSize, size)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Return the first validation error in a user-friendly format
	e := validationErrs[0]
	field := e.Namespace()
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%w: %s: field is required", ErrInvalidRequest, field)
	case "min", "gte":
		return fmt.Errorf("%w: %s: must be at least %s", ErrInvalidRequest, field, param)
	case "max", "lte":
		return fmt.Errorf("%w: %s: must not exceed %s", ErrInvalidRequest, field, param)
	case "gt":
		return fmt.Errorf("%w: %s: must be greater than %s", ErrInvalidRequest, field, param)
	default:
		return fmt.Errorf("%w: %s: validation failed (%s)", ErrInvalidRequest, field, e.Tag())
	}
}
