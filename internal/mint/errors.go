package mint

import "errors"

var (
	ErrValidation          = errors.New("invalid mint form")
	ErrNotEligible         = errors.New("collection is not open for minting")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNeedGasCoin         = errors.New("a second SUI coin is needed to pay gas")
	ErrMissingCapability   = errors.New("signer does not hold the collection AdminCap")
	ErrMintNotFound        = errors.New("mint not found")
	ErrMintState           = errors.New("mint is not awaiting a signature")
	ErrSignerMismatch      = errors.New("signature does not belong to the mint sender")
)
