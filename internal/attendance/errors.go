package attendance

import "fmt"

type ErrorKind string

const (
	KindValidation ErrorKind = "Validation"
	KindConflict   ErrorKind = "Conflict"
	KindForbidden  ErrorKind = "Forbidden"
	KindNotFound   ErrorKind = "NotFound"
)

// 冲突类错误码，客户端依赖这些值做分支（例如提示去处理未关闭的班次）
const (
	CodeOpenShiftExists     = "OpenShiftExists"
	CodeNoOpenShift         = "NoOpenShift"
	CodeAlreadyRecorded     = "AlreadyRecorded"
	CodeDuplicateRequest    = "DuplicateRequest"
	CodeNoVehicleAssignment = "NoVehicleAssignment"
	CodeIllegalStatusFlip   = "IllegalStatusFlip"
	CodeDecisionRetry       = "DecisionRetry"
)

// Error 核心操作的业务错误，Kind 指示类别，Code 供客户端分支使用。
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func conflictError(code string, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func forbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func notFoundError(code string, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}
