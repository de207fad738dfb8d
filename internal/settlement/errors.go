package settlement

import "errors"

var (
	ErrMalformedInput        = errors.New("malformed input")
	ErrMissingAccount        = errors.New("missing participant account")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrRandomnessUnavailable = errors.New("randomness unavailable")
	ErrTransferFailure       = errors.New("transfer failure")
)

// Kind classifica o erro para respostas HTTP, eventos e métricas.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrMissingAccount):
		return "missing_account"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrRandomnessUnavailable):
		return "randomness_unavailable"
	case errors.Is(err, ErrTransferFailure):
		return "transfer_failure"
	default:
		return "internal"
	}
}

// Deterministic indica que a mesma entrada sempre falha do mesmo jeito,
// independente do sorteio ou do estado do ledger.
func Deterministic(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrMissingAccount) ||
		errors.Is(err, ErrArithmeticOverflow)
}
