package errors

import "fmt"

var (
	ErrMissingSecret     = fmt.Errorf("encryption secret is empty")
	ErrEmptyPlaintext    = fmt.Errorf("plaintext is empty")
	ErrPlaintextTooLong  = fmt.Errorf("plaintext exceeds maximum length")
	ErrEmptyBatch        = fmt.Errorf("batch contains no entries")
	ErrBatchTooLarge     = fmt.Errorf("batch exceeds maximum size")
	ErrSelfMessage       = fmt.Errorf("sender and receiver are the same user")
	ErrCrossOrganization = fmt.Errorf("sender and receiver belong to different organizations")
	ErrProfileNotFound   = fmt.Errorf("profile not found")
)
