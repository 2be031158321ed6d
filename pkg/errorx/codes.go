package errorx

// Numeric error codes follow a 1XXYYZ scheme: 1 for the project, XX for the
// owning component group, YY/Z left available for future subdivision. Every
// code in this table is registered at init() time and carries the HTTP
// status the gateway returns for it, per spec §7's mapping table.
const (
	CodeBinaryNotFound          = 100101
	CodeSpawn                   = 100102
	CodeConnectionLost          = 100103
	CodeUnexpectedStreamEnd     = 100104
	CodeParseFailure            = 100105
	CodeControlRequestFailure   = 100106
	CodeTimeout                 = 100107
	CodeInvalidState            = 100108
	CodePoolExhausted           = 100109
	CodeBudgetExceeded          = 100110
	CodeRateLimited             = 100111
	CodeUnauthorized            = 100112
	CodeNotFound                = 100113
	CodeBadRequest              = 100114
	CodeContextLengthExceeded   = 100115
	CodeInvalidModel            = 100116
	CodeInternal                = 100117
	CodeCircuitOpen             = 100118
)

type coder struct {
	code       int
	httpStatus int
	msg        string
}

func (c coder) Code() int         { return c.code }
func (c coder) HTTPStatus() int   { return c.httpStatus }
func (c coder) String() string    { return c.msg }
func (c coder) Reference() string { return "" }

func init() {
	MustRegister(coder{CodeBinaryNotFound, 500, "agent CLI binary not found"})
	MustRegister(coder{CodeSpawn, 500, "failed to spawn agent process"})
	MustRegister(coder{CodeConnectionLost, 500, "connection to agent process lost"})
	MustRegister(coder{CodeUnexpectedStreamEnd, 500, "agent output stream ended unexpectedly"})
	MustRegister(coder{CodeParseFailure, 500, "failed to parse agent message"})
	MustRegister(coder{CodeControlRequestFailure, 500, "control request failed"})
	MustRegister(coder{CodeTimeout, 504, "request timed out"})
	MustRegister(coder{CodeInvalidState, 500, "invalid runtime state"})
	MustRegister(coder{CodePoolExhausted, 503, "session pool exhausted"})
	MustRegister(coder{CodeBudgetExceeded, 500, "token/cost budget exceeded"})
	MustRegister(coder{CodeRateLimited, 429, "rate limited"})
	MustRegister(coder{CodeUnauthorized, 401, "unauthorized"})
	MustRegister(coder{CodeNotFound, 404, "not found"})
	MustRegister(coder{CodeBadRequest, 400, "bad request"})
	MustRegister(coder{CodeContextLengthExceeded, 400, "context length exceeded"})
	MustRegister(coder{CodeInvalidModel, 400, "invalid model"})
	MustRegister(coder{CodeInternal, 500, "internal error"})
	MustRegister(coder{CodeCircuitOpen, 503, "circuit breaker open"})
}
