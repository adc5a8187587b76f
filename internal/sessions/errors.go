package sessions

import "errors"

var ErrEmptyTokenID = errors.New("token id is required")
