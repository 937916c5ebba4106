package audit

// FlaggedAccount describes an account that requires attention.
type FlaggedAccount struct {
	name    string
	email   *string
	details *string
}

// NewFlaggedAccount constructs an account identified by the provided name.
func NewFlaggedAccount(name string) FlaggedAccount {
	return FlaggedAccount{name: name}
}

// WithEmail returns a copy of the account carrying the provided email address.
func (account FlaggedAccount) WithEmail(email string) FlaggedAccount {
	duplicatedEmail := email
	account.email = &duplicatedEmail
	return account
}

// WithDetails returns a copy of the account carrying the provided display annotation.
func (account FlaggedAccount) WithDetails(details string) FlaggedAccount {
	duplicatedDetails := details
	account.details = &duplicatedDetails
	return account
}

// Name returns the account identifier.
func (account FlaggedAccount) Name() string {
	return account.name
}

// Email returns the account email address when known.
func (account FlaggedAccount) Email() (string, bool) {
	if account.email == nil {
		return "", false
	}
	return *account.email, true
}

// Details returns the display annotation when present.
func (account FlaggedAccount) Details() (string, bool) {
	if account.details == nil {
		return "", false
	}
	return *account.details, true
}

// OutcomeKind enumerates the variants of an audit outcome.
type OutcomeKind string

// Outcome variants.
const (
	OutcomeKindSuccess OutcomeKind = "success"
	OutcomeKindFailure OutcomeKind = "failure"
)

// Outcome captures the result of auditing a single backend.
type Outcome struct {
	kind        OutcomeKind
	backendName string
	accounts    []FlaggedAccount
	message     string
}

// NewSuccessOutcome records a completed audit together with the accounts it flagged.
func NewSuccessOutcome(backendName string, accounts []FlaggedAccount) Outcome {
	duplicatedAccounts := make([]FlaggedAccount, len(accounts))
	copy(duplicatedAccounts, accounts)
	return Outcome{
		kind:        OutcomeKindSuccess,
		backendName: backendName,
		accounts:    duplicatedAccounts,
	}
}

// NewFailureOutcome records an audit that could not be completed.
func NewFailureOutcome(backendName string, message string) Outcome {
	return Outcome{
		kind:        OutcomeKindFailure,
		backendName: backendName,
		message:     message,
	}
}

// Kind reports which variant the outcome holds.
func (outcome Outcome) Kind() OutcomeKind {
	return outcome.kind
}

// BackendName returns the name of the backend that produced the outcome.
func (outcome Outcome) BackendName() string {
	return outcome.backendName
}

// Accounts returns the flagged accounts of a successful outcome in backend order.
func (outcome Outcome) Accounts() []FlaggedAccount {
	duplicatedAccounts := make([]FlaggedAccount, len(outcome.accounts))
	copy(duplicatedAccounts, outcome.accounts)
	return duplicatedAccounts
}

// Message returns the failure description of a failed outcome.
func (outcome Outcome) Message() string {
	return outcome.message
}

// IsFailure reports whether the backend audit failed.
func (outcome Outcome) IsFailure() bool {
	return outcome.kind == OutcomeKindFailure
}

// HasFindings reports whether a successful audit flagged at least one account.
func (outcome Outcome) HasFindings() bool {
	return outcome.kind == OutcomeKindSuccess && len(outcome.accounts) > 0
}

// ConstructionKind enumerates the results a BackendFactory may produce.
type ConstructionKind string

// Construction result variants.
const (
	ConstructionKindNotConfigured         ConstructionKind = "not_configured"
	ConstructionKindMissingRequiredFields ConstructionKind = "missing_required_fields"
	ConstructionKindReady                 ConstructionKind = "ready"
)

// ConstructionResult is the closed set of answers a BackendFactory gives for one option set.
type ConstructionResult struct {
	kind          ConstructionKind
	missingFields []string
	backend       Backend
}

// NotConfigured reports that none of the backend's required options were supplied.
func NotConfigured() ConstructionResult {
	return ConstructionResult{kind: ConstructionKindNotConfigured}
}

// MissingRequiredFields reports the required option names that were absent.
func MissingRequiredFields(fieldNames ...string) ConstructionResult {
	return ConstructionResult{
		kind:          ConstructionKindMissingRequiredFields,
		missingFields: append([]string{}, fieldNames...),
	}
}

// Ready wraps a fully configured backend.
func Ready(backend Backend) ConstructionResult {
	return ConstructionResult{kind: ConstructionKindReady, backend: backend}
}

// Kind reports which variant the result holds.
func (result ConstructionResult) Kind() ConstructionKind {
	return result.kind
}

// MissingFields returns the absent required option names.
func (result ConstructionResult) MissingFields() []string {
	return append([]string{}, result.missingFields...)
}

// Backend returns the constructed backend when the result is ready.
func (result ConstructionResult) Backend() (Backend, bool) {
	if result.kind != ConstructionKindReady || result.backend == nil {
		return nil, false
	}
	return result.backend, true
}
