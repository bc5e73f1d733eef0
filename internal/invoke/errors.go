package invoke

import "errors"

var (
	errNonStructDataParam = errors.New("invoke: the data parameter must be a struct (or pointer to struct)")
	errMultipleDataParams = errors.New("invoke: at most one data parameter is supported")
	errBadReturnShape     = errors.New("invoke: callable must return exactly (result, error)")
	errNilFunc            = errors.New("invoke: callable must be a non-nil function")
)
