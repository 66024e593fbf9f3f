package types

// Code identifies one failure class of the closed contract error taxonomy.
type Code uint32

const (
	CodeNotAuthorized Code = iota + 1
	CodeMarketNotFound
	CodeMarketClosed
	CodeMarketAlreadyResolved
	CodeInsufficientBalance
	CodeInvalidAmount
	CodeInvalidOutcome
	CodeBetNotFound
	CodeAlreadyClaimed
	CodeOracleError
	CodeInvalidTimestamp
	CodeStakeNotFound
	CodeInsufficientStake
)

// ContractError is a fatal-to-the-call failure. Returning one from an entry
// point aborts the transaction and discards every storage write made in it.
type ContractError struct {
	Code Code
	Msg  string
}

func (self *ContractError) Error() string {
	return self.Msg
}

// Is matches by code so wrapped errors compare against the sentinels below.
func (self *ContractError) Is(target error) bool {
	t, ok := target.(*ContractError)
	return ok && t.Code == self.Code
}

var (
	ErrNotAuthorized         = &ContractError{CodeNotAuthorized, "not authorized"}
	ErrMarketNotFound        = &ContractError{CodeMarketNotFound, "market not found"}
	ErrMarketClosed          = &ContractError{CodeMarketClosed, "market closed"}
	ErrMarketAlreadyResolved = &ContractError{CodeMarketAlreadyResolved, "market already resolved"}
	ErrInsufficientBalance   = &ContractError{CodeInsufficientBalance, "insufficient balance"}
	ErrInvalidAmount         = &ContractError{CodeInvalidAmount, "invalid amount"}
	ErrInvalidOutcome        = &ContractError{CodeInvalidOutcome, "invalid outcome"}
	ErrBetNotFound           = &ContractError{CodeBetNotFound, "bet not found"}
	ErrAlreadyClaimed        = &ContractError{CodeAlreadyClaimed, "winnings already claimed"}
	ErrOracleError           = &ContractError{CodeOracleError, "oracle error"}
	ErrInvalidTimestamp      = &ContractError{CodeInvalidTimestamp, "invalid timestamp"}
	ErrStakeNotFound         = &ContractError{CodeStakeNotFound, "stake not found"}
	ErrInsufficientStake     = &ContractError{CodeInsufficientStake, "insufficient stake"}
)
