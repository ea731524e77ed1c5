package auth

type ErrorKind int

const (
	Unauthenticated ErrorKind = iota + 1
	InsufficientRole
	CrossTenantAccess
)

func (k ErrorKind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case InsufficientRole:
		return "insufficient_role"
	case CrossTenantAccess:
		return "cross_tenant_access"
	default:
		return "unknown"
	}
}

// Error is a guard decision other than Allow.
// Both denial kinds share the same message so callers cannot tell them apart.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrUnauthenticated   = &Error{Kind: Unauthenticated, Message: "user not authenticated"}
	ErrInsufficientRole  = &Error{Kind: InsufficientRole, Message: "permission denied"}
	ErrCrossTenantAccess = &Error{Kind: CrossTenantAccess, Message: "permission denied"}
)
