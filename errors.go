package mxprobe

import "errors"

var (
	// ErrInvalidConfig is returned by New and Reconfigure when the
	// configuration fails validation. It is the only batch-fatal error.
	ErrInvalidConfig = errors.New("mxprobe: invalid config")

	// ErrBatchTooLarge is returned by Run and Stream when the batch
	// exceeds Config.MaxBatchSize. No address is processed.
	ErrBatchTooLarge = errors.New("mxprobe: batch exceeds MaxBatchSize")

	// ErrEngineBusy is returned by Reconfigure while a batch is running.
	ErrEngineBusy = errors.New("mxprobe: engine is busy")
)
