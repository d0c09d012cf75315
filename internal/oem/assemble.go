package oem

import (
	"math"

	"github.com/speedwagon-io/odse/internal/model"
)

// baseRecord assembles the required canonical fields. kWh is floored at
// zero; error code and asset id ride along only when resolved.
func baseRecord(ts string, kwh float64, errType model.ErrorType, errCode, assetID string) model.Record {
	return model.Record{
		Timestamp: ts,
		KWh:       math.Max(kwh, 0),
		ErrorType: errType,
		ErrorCode: errCode,
		AssetID:   assetID,
	}
}
