package services

import "errors"

// Report service errors
var (
	ErrNoFiles        = errors.New("no input files")
	ErrAllFilesFailed = errors.New("every input file failed")
)
