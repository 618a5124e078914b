package domain

import "errors"

// Build-phase error kinds. All of them are detected eagerly while a map is
// being built and none are recovered internally: the caller fixes the input
// and builds again.
var (
	// ErrDataLoad reports an observation file that cannot be read or is not
	// valid newline-delimited JSON.
	ErrDataLoad = errors.New("data load error")

	// ErrSchema reports an observation record missing a required field or
	// carrying a value outside its documented range.
	ErrSchema = errors.New("schema error")

	// ErrInvalidGridConfiguration reports a non-positive cell size or a
	// region/cell-size pair that yields no usable grid.
	ErrInvalidGridConfiguration = errors.New("invalid grid configuration")

	// ErrInsufficientObservationCoverage reports a wind join in which no cell
	// received a sample, so no fallback value exists.
	ErrInsufficientObservationCoverage = errors.New("insufficient observation coverage")

	// ErrProjection reports a region unsuitable for automatic metric projection.
	ErrProjection = errors.New("projection error")
)

// Errors returned by the interactive operations on a built map.
var (
	ErrInvalidCoefficients = errors.New("invalid coefficients")
	ErrUnknownLayer        = errors.New("unknown layer")
	ErrNotImplemented      = errors.New("not implemented")
)
