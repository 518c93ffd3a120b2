package wire

// ReturnCode is the status carried by a SOME/IP header. Values in
// 0x10..0x1F and 0x20..0x5E are generic/interface error ranges that
// still decode successfully, carrying the raw byte.
type ReturnCode struct {
	kind  returnCodeKind
	value uint8 // meaningful only for GenericError/InterfaceError
}

type returnCodeKind uint8

const (
	kindOk returnCodeKind = iota
	kindNotOk
	kindUnknownService
	kindUnknownMethod
	kindNotReady
	kindNotReachable
	kindTimeout
	kindWrongProtocolVersion
	kindWrongInterfaceVersion
	kindMalformedMessage
	kindWrongMessageType
	kindE2ERepeated
	kindE2EWrongSequence
	kindE2E
	kindE2ENotAvailable
	kindE2ENoNewData
	kindGenericError
	kindInterfaceError
)

var (
	ReturnCodeOk                    = ReturnCode{kind: kindOk}
	ReturnCodeNotOk                 = ReturnCode{kind: kindNotOk}
	ReturnCodeUnknownService        = ReturnCode{kind: kindUnknownService}
	ReturnCodeUnknownMethod         = ReturnCode{kind: kindUnknownMethod}
	ReturnCodeNotReady              = ReturnCode{kind: kindNotReady}
	ReturnCodeNotReachable          = ReturnCode{kind: kindNotReachable}
	ReturnCodeTimeout               = ReturnCode{kind: kindTimeout}
	ReturnCodeWrongProtocolVersion  = ReturnCode{kind: kindWrongProtocolVersion}
	ReturnCodeWrongInterfaceVersion = ReturnCode{kind: kindWrongInterfaceVersion}
	ReturnCodeMalformedMessage      = ReturnCode{kind: kindMalformedMessage}
	ReturnCodeWrongMessageType      = ReturnCode{kind: kindWrongMessageType}
	ReturnCodeE2ERepeated           = ReturnCode{kind: kindE2ERepeated}
	ReturnCodeE2EWrongSequence      = ReturnCode{kind: kindE2EWrongSequence}
	ReturnCodeE2E                   = ReturnCode{kind: kindE2E}
	ReturnCodeE2ENotAvailable       = ReturnCode{kind: kindE2ENotAvailable}
	ReturnCodeE2ENoNewData          = ReturnCode{kind: kindE2ENoNewData}
)

// GenericError builds a ReturnCode in the 0x10..0x1F range.
func GenericError(code uint8) ReturnCode {
	return ReturnCode{kind: kindGenericError, value: code}
}

// InterfaceError builds a ReturnCode in the 0x20..0x5E range.
func InterfaceError(code uint8) ReturnCode {
	return ReturnCode{kind: kindInterfaceError, value: code}
}

// IsGenericError reports whether this is a 0x10..0x1F code, returning it.
func (r ReturnCode) IsGenericError() (uint8, bool) {
	return r.value, r.kind == kindGenericError
}

// IsInterfaceError reports whether this is a 0x20..0x5E code, returning it.
func (r ReturnCode) IsInterfaceError() (uint8, bool) {
	return r.value, r.kind == kindInterfaceError
}

func parseReturnCode(value uint8) (ReturnCode, error) {
	switch {
	case value == 0x00:
		return ReturnCodeOk, nil
	case value == 0x01:
		return ReturnCodeNotOk, nil
	case value == 0x02:
		return ReturnCodeUnknownService, nil
	case value == 0x03:
		return ReturnCodeUnknownMethod, nil
	case value == 0x04:
		return ReturnCodeNotReady, nil
	case value == 0x05:
		return ReturnCodeNotReachable, nil
	case value == 0x06:
		return ReturnCodeTimeout, nil
	case value == 0x07:
		return ReturnCodeWrongProtocolVersion, nil
	case value == 0x08:
		return ReturnCodeWrongInterfaceVersion, nil
	case value == 0x09:
		return ReturnCodeMalformedMessage, nil
	case value == 0x0a:
		return ReturnCodeWrongMessageType, nil
	case value == 0x0b:
		return ReturnCodeE2ERepeated, nil
	case value == 0x0c:
		return ReturnCodeE2EWrongSequence, nil
	case value == 0x0d:
		return ReturnCodeE2E, nil
	case value == 0x0e:
		return ReturnCodeE2ENotAvailable, nil
	case value == 0x0f:
		return ReturnCodeE2ENoNewData, nil
	case value >= 0x10 && value <= 0x1f:
		return GenericError(value), nil
	case value >= 0x20 && value <= 0x5e:
		return InterfaceError(value), nil
	default:
		return ReturnCode{}, ErrInvalidReturnCode(value)
	}
}

func (r ReturnCode) byte() uint8 {
	switch r.kind {
	case kindOk:
		return 0x00
	case kindNotOk:
		return 0x01
	case kindUnknownService:
		return 0x02
	case kindUnknownMethod:
		return 0x03
	case kindNotReady:
		return 0x04
	case kindNotReachable:
		return 0x05
	case kindTimeout:
		return 0x06
	case kindWrongProtocolVersion:
		return 0x07
	case kindWrongInterfaceVersion:
		return 0x08
	case kindMalformedMessage:
		return 0x09
	case kindWrongMessageType:
		return 0x0a
	case kindE2ERepeated:
		return 0x0b
	case kindE2EWrongSequence:
		return 0x0c
	case kindE2E:
		return 0x0d
	case kindE2ENotAvailable:
		return 0x0e
	case kindE2ENoNewData:
		return 0x0f
	case kindGenericError, kindInterfaceError:
		return r.value
	default:
		return 0
	}
}
