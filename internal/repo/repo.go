package repo

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrUserAlreadyExist = errors.New("user already exist")
)
