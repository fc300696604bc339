package game

import "errors"

var (
	ErrOutOfRange     = errors.New("catalog index out of range")
	ErrEmptyCatalog   = errors.New("catalog has no items")
	ErrFirstThreshold = errors.New("first catalog item must have threshold 0")
	ErrThresholdOrder = errors.New("catalog thresholds must be strictly increasing")
	ErrNegativeValue  = errors.New("catalog price and threshold must be non-negative")
	ErrDuplicateKey   = errors.New("duplicate catalog item key")
	ErrNoShareHandler = errors.New("no share handler available")
	ErrShareTemplate  = errors.New("share text must format units sold then revenue")
)
