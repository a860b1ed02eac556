package registry

import "errors"

var (
	ErrContractorNotFound = errors.New("contractor not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrAccountSealed      = errors.New("account number is encrypted and no encryption key is configured")
)
