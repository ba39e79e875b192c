package site

import "errors"

var errNotAbsolute = errors.New("base URL must be absolute")
