package router

// ResultCode classifies the outcome of a gateway operation so callers can
// tell a dead router from a misconfigured node or a harmless no-op instead
// of collapsing everything to false.
type ResultCode string

const (
	CodeOK            ResultCode = "ok"
	CodeNoOp          ResultCode = "noop"           // nothing to do (e.g. already disabled)
	CodeMisconfigured ResultCode = "misconfigured"  // node not reachable over the API by configuration
	CodeUnreachable   ResultCode = "unreachable"    // connect/auth failure
	CodeProtocolError ResultCode = "protocol_error" // router rejected or garbled the exchange
)

// OpResult is the outcome of one gateway operation
type OpResult struct {
	OK   bool
	Code ResultCode
	Err  error
}

func resultOK() OpResult {
	return OpResult{OK: true, Code: CodeOK}
}

func resultNoOp() OpResult {
	return OpResult{OK: true, Code: CodeNoOp}
}

func resultFail(code ResultCode, err error) OpResult {
	return OpResult{OK: false, Code: code, Err: err}
}
