package domain

import "errors"

var (
	// ErrWindowUnavailable marks a grid window that could not be fetched or
	// read back this run; the pipeline skips it.
	ErrWindowUnavailable = errors.New("grid window unavailable")
	// ErrDetailUnavailable marks a series detail that could not be fetched
	// after retries; its episodes keep base data only.
	ErrDetailUnavailable = errors.New("series detail unavailable")
	// ErrSeriesPlaceholder marks a series whose upcoming listings still carry
	// a placeholder subtitle; the series is dropped for the rest of the run.
	ErrSeriesPlaceholder = errors.New("series has placeholder listings")
	// ErrMalformedPayload marks a stored or fetched payload that failed
	// structural validation.
	ErrMalformedPayload = errors.New("malformed payload")
)
