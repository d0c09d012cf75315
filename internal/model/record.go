package model

// ErrorType is the canonical operating state of an asset at one reading.
type ErrorType string

const (
	ErrorNormal   ErrorType = "normal"
	ErrorWarning  ErrorType = "warning"
	ErrorCritical ErrorType = "critical"
	ErrorFault    ErrorType = "fault"
	ErrorOffline  ErrorType = "offline"
	ErrorStandby  ErrorType = "standby"
	ErrorUnknown  ErrorType = "unknown"
)

// ErrorTypes lists every canonical state in schema order.
func ErrorTypes() []ErrorType {
	return []ErrorType{
		ErrorNormal,
		ErrorWarning,
		ErrorCritical,
		ErrorFault,
		ErrorOffline,
		ErrorStandby,
		ErrorUnknown,
	}
}

// ValidErrorType reports whether s is a member of the canonical state enum.
func ValidErrorType(s string) bool {
	switch ErrorType(s) {
	case ErrorNormal, ErrorWarning, ErrorCritical, ErrorFault,
		ErrorOffline, ErrorStandby, ErrorUnknown:
		return true
	}
	return false
}

// Record is one normalized ODS-E reading. Timestamp, KWh and ErrorType are
// always present; every other field is emitted only when the source exposed
// the underlying quantity. Optional numerics are pointers so a present zero
// survives serialization and absence is omission, never null.
type Record struct {
	Timestamp    string    `json:"timestamp"`
	KWh          float64   `json:"kWh"`
	ErrorType    ErrorType `json:"error_type"`
	ErrorCode    string    `json:"error_code,omitempty"`
	KW           *float64  `json:"kW,omitempty"`
	KVA          *float64  `json:"kVA,omitempty"`
	KVAr         *float64  `json:"kVAr,omitempty"`
	KVArh        *float64  `json:"kVArh,omitempty"`
	PF           *float64  `json:"PF,omitempty"`
	VoltageAC    *float64  `json:"voltage_ac,omitempty"`
	CurrentAC    *float64  `json:"current_ac,omitempty"`
	Frequency    *float64  `json:"frequency,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	AssetID      string    `json:"asset_id,omitempty"`
	OEMErrorCode string    `json:"oem_error_code,omitempty"`
}

// Float returns a pointer for an optional record field.
func Float(v float64) *float64 {
	return &v
}
