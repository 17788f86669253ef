package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrMissingFile        = errors.New("no file uploaded")
	ErrUnsupportedType    = errors.New("unsupported image type")
	ErrFileTooLarge       = errors.New("file exceeds upload size limit")
	ErrStorageUnavailable = errors.New("storage is not configured")
	ErrDecode             = errors.New("image could not be decoded")
	ErrTranscode          = errors.New("image could not be transcoded")
	ErrStorageError       = errors.New("storage operation failed")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
