package cliplib

import "errors"

var (
	ErrEmptyURL = errors.New("cliplib: empty clip url")
	ErrNotVideo = errors.New("cliplib: url does not reference a video file")
	ErrNotFound = errors.New("cliplib: clip not found")
)
