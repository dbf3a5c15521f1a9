package constants

const MessageErrorFormat = "The '%s' format is invalid"

const (
	ErrCodeInstrumentNotFound  = "INSTRUMENT_NOT_FOUND"
	ErrCodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	ErrCodeStoreNotFound       = "STORE_NOT_FOUND"
	ErrCodeCustomerNotFound    = "CUSTOMER_NOT_FOUND"
	ErrCodeAlreadyConfirmed    = "ALREADY_CONFIRMED"
	ErrCodeAlreadyReversed     = "ALREADY_REVERSED"
	ErrCodeAlreadyRefunded     = "ALREADY_REFUNDED"
	ErrCodeNotYetConfirmed     = "NOT_YET_CONFIRMED"
	ErrCodeDuplicateClientTxID = "DUPLICATE_CLIENT_TX_ID"
	ErrCodeCustomerMismatch    = "CUSTOMER_MISMATCH"
	ErrCodeCodeAlreadyUsed     = "CODE_ALREADY_USED"
	ErrCodeInvalidPhone        = "INVALID_PHONE"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeTransactionMismatch = "TRANSACTION_MISMATCH"
	ErrCodeScopeViolation      = "SCOPE_VIOLATION"
	ErrCodeInstrumentInactive  = "INSTRUMENT_INACTIVE"
	ErrCodeInstrumentBlocked   = "INSTRUMENT_BLOCKED"
	ErrCodeInstrumentExpired   = "INSTRUMENT_EXPIRED"
	ErrCodeUnsupportedType     = "UNSUPPORTED_SETTLEMENT_TYPE"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeDataIntegrity       = "DATA_INTEGRITY_ERROR"
	ErrCodeAmountInconsistency = "AMOUNT_INCONSISTENCY"
	ErrCodeOperationFailed     = "OPERATION_FAILED"
	ErrCodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
)

const (
	ErrMsgInstrumentNotFound  = "gift card or discount code not found"
	ErrMsgTransactionNotFound = "transaction not found"
	ErrMsgStoreNotFound       = "store not found"
	ErrMsgCustomerNotFound    = "customer not found"
	ErrMsgAlreadyConfirmed    = "transaction already confirmed"
	ErrMsgAlreadyReversed     = "transaction already reversed"
	ErrMsgAlreadyRefunded     = "transaction already refunded"
	ErrMsgNotYetConfirmed     = "transaction is not confirmed yet"
	ErrMsgDuplicateClientTxID = "a transaction with this client transaction id already exists"
	ErrMsgCustomerMismatch    = "instrument belongs to another customer"
	ErrMsgCodeAlreadyUsed     = "discount code already used"
	ErrMsgInvalidPhone        = "invalid phone number"
	ErrMsgInvalidAmount       = "amount must be positive"
	ErrMsgTransactionMismatch = "request does not match the original transaction"
	ErrMsgScopeViolation      = "instrument is not valid for this store or item category"
	ErrMsgInstrumentInactive  = "instrument is not active"
	ErrMsgInstrumentBlocked   = "instrument is blocked"
	ErrMsgInstrumentExpired   = "instrument is expired or not yet valid"
	ErrMsgUnsupportedType     = "unsupported settlement type"
	ErrMsgValidationFailed    = "validation failed"
	ErrMsgInsufficientBalance = "insufficient balance"
	ErrMsgDataIntegrity       = "ledger data integrity error"
	ErrMsgAmountInconsistency = "restoring amount would exceed the initial amount"
	ErrMsgOperationFailed     = "operation failed"
	ErrMsgInvalidRequestBody  = "failed to parse request body"
)

type Category string

const (
	CategoryNotFound            Category = "NOT_FOUND"
	CategoryConflict            Category = "CONFLICT"
	CategoryInvalidInput        Category = "INVALID_INPUT"
	CategoryInsufficientBalance Category = "INSUFFICIENT_BALANCE"
	CategoryDataIntegrity       Category = "DATA_INTEGRITY"
	CategoryInternal            Category = "INTERNAL"
)

type errorInfo struct {
	message  string
	category Category
	status   int
}

var errorTable = map[string]errorInfo{
	ErrCodeInstrumentNotFound:  {ErrMsgInstrumentNotFound, CategoryNotFound, 404},
	ErrCodeTransactionNotFound: {ErrMsgTransactionNotFound, CategoryNotFound, 404},
	ErrCodeStoreNotFound:       {ErrMsgStoreNotFound, CategoryNotFound, 404},
	ErrCodeCustomerNotFound:    {ErrMsgCustomerNotFound, CategoryNotFound, 404},
	ErrCodeAlreadyConfirmed:    {ErrMsgAlreadyConfirmed, CategoryConflict, 409},
	ErrCodeAlreadyReversed:     {ErrMsgAlreadyReversed, CategoryConflict, 409},
	ErrCodeAlreadyRefunded:     {ErrMsgAlreadyRefunded, CategoryConflict, 409},
	ErrCodeNotYetConfirmed:     {ErrMsgNotYetConfirmed, CategoryConflict, 409},
	ErrCodeDuplicateClientTxID: {ErrMsgDuplicateClientTxID, CategoryConflict, 409},
	ErrCodeCustomerMismatch:    {ErrMsgCustomerMismatch, CategoryConflict, 409},
	ErrCodeCodeAlreadyUsed:     {ErrMsgCodeAlreadyUsed, CategoryConflict, 409},
	ErrCodeInvalidPhone:        {ErrMsgInvalidPhone, CategoryInvalidInput, 400},
	ErrCodeInvalidAmount:       {ErrMsgInvalidAmount, CategoryInvalidInput, 400},
	ErrCodeTransactionMismatch: {ErrMsgTransactionMismatch, CategoryInvalidInput, 422},
	ErrCodeScopeViolation:      {ErrMsgScopeViolation, CategoryInvalidInput, 403},
	ErrCodeInstrumentInactive:  {ErrMsgInstrumentInactive, CategoryInvalidInput, 422},
	ErrCodeInstrumentBlocked:   {ErrMsgInstrumentBlocked, CategoryInvalidInput, 422},
	ErrCodeInstrumentExpired:   {ErrMsgInstrumentExpired, CategoryInvalidInput, 422},
	ErrCodeUnsupportedType:     {ErrMsgUnsupportedType, CategoryInvalidInput, 400},
	ErrCodeValidationFailed:    {ErrMsgValidationFailed, CategoryInvalidInput, 422},
	ErrCodeInvalidRequestBody:  {ErrMsgInvalidRequestBody, CategoryInvalidInput, 400},
	ErrCodeInsufficientBalance: {ErrMsgInsufficientBalance, CategoryInsufficientBalance, 409},
	ErrCodeDataIntegrity:       {ErrMsgDataIntegrity, CategoryDataIntegrity, 500},
	ErrCodeAmountInconsistency: {ErrMsgAmountInconsistency, CategoryDataIntegrity, 500},
	ErrCodeOperationFailed:     {ErrMsgOperationFailed, CategoryInternal, 500},
}

func GetErrorMessage(code string) string {
	if info, exists := errorTable[code]; exists {
		return info.message
	}
	return ErrMsgOperationFailed
}

func GetCategory(code string) Category {
	if info, exists := errorTable[code]; exists {
		return info.category
	}
	return CategoryInternal
}

func GetHTTPStatus(code string) int {
	if info, exists := errorTable[code]; exists {
		return info.status
	}
	return 500
}
