package coredata

import "errors"

// Common errors
var (
	ErrBatchNotFound                 = errors.New("batch not found")
	ErrStateNotFound                 = errors.New("state not found")
	ErrNoDataFound                   = errors.New("no published data found")
	ErrAlreadyPublished              = errors.New("batch already published")
	ErrInvalidTotalTestResultsSource = errors.New("invalid totalTestResultsSource value")
)
