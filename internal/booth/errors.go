package booth

import "errors"

var (
	ErrInvalidData    = errors.New("only one question per vote")
	ErrInvalidBarcode = errors.New("barcode matches no artwork")
	ErrSessionFrozen  = errors.New("vote session is already created")
	ErrSessionBusy    = errors.New("vote session is being created")
	ErrNoAnswers      = errors.New("no artworks selected")
	ErrNotManual      = errors.New("manual selection is disabled")
	ErrSelectionFull  = errors.New("selection limit reached")
	ErrUnknownAnswer  = errors.New("answer is not part of this booth")
	ErrNotCreating    = errors.New("vote session creation was not started")
	ErrScannerOff     = errors.New("scanner is disabled in manual mode")
)
