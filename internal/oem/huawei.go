package oem

import (
	"strconv"

	"github.com/speedwagon-io/odse/internal/model"
)

// huaweiTransformer handles FusionSolar CSV exports: one row per sampling
// interval with instantaneous power and two status registers. Energy is
// estimated from power over the interval because the export carries no
// accumulated column.
type huaweiTransformer struct{}

const huaweiDefaultIntervalMinutes = 5

var (
	huaweiTimestampAliases = []string{"timestamp", "Time", "Timestamp", "time"}
	huaweiPowerAliases     = []string{"power", "Active Power(kW)", "Power", "power_kw"}
	huaweiStateAliases     = []string{"inverter_state", "Inverter State", "State", "status"}
	huaweiRunStateAliases  = []string{"run_state", "Running State", "Run State"}
)

// huaweiStates maps the FusionSolar inverter state register to canonical
// states. Unlisted registers classify as unknown.
var huaweiStates = map[int]model.ErrorType{
	0:     model.ErrorNormal,
	1:     model.ErrorNormal,
	2:     model.ErrorNormal,
	3:     model.ErrorNormal,
	256:   model.ErrorNormal,
	512:   model.ErrorNormal,
	1025:  model.ErrorNormal,
	1026:  model.ErrorNormal,
	1280:  model.ErrorNormal,
	1281:  model.ErrorNormal,
	1536:  model.ErrorNormal,
	1792:  model.ErrorNormal,
	2048:  model.ErrorNormal,
	2304:  model.ErrorNormal,
	40960: model.ErrorNormal,
	49152: model.ErrorNormal,
	513:   model.ErrorWarning,
	514:   model.ErrorWarning,
	772:   model.ErrorWarning,
	773:   model.ErrorWarning,
	774:   model.ErrorWarning,
	768:   model.ErrorCritical,
	770:   model.ErrorCritical,
	771:   model.ErrorCritical,
	45056: model.ErrorCritical,
	769:   model.ErrorFault,
	1024:  model.ErrorFault,
}

func (t huaweiTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	return collectRows(data, t.rowFunc(opts))
}

func (t huaweiTransformer) transformStream(data string, opts Options) (Stream, error) {
	rows, err := newCSVRowReader(data)
	if err != nil {
		return nil, err
	}
	return &csvStream{rows: rows, row: t.rowFunc(opts)}, nil
}

func (huaweiTransformer) rowFunc(opts Options) rowFn {
	hours := opts.intervalHours(huaweiDefaultIntervalMinutes)
	return func(row map[string]string) (model.Record, bool) {
		rawTS, _ := firstString(row, huaweiTimestampAliases...)
		ts, ok := stringToISO(rawTS, opts.Timezone)
		if !ok {
			return model.Record{}, false
		}

		powerKW, _ := floatField(row, huaweiPowerAliases...)
		state, stateOK := intField(row, huaweiStateAliases...)
		runState, runOK := intField(row, huaweiRunStateAliases...)

		code := "unknown"
		if stateOK {
			code = strconv.Itoa(state)
		}
		rec := baseRecord(ts, intervalEnergy(powerKW, hours),
			huaweiStatus(state, stateOK, runState, runOK), code, opts.AssetID)
		return rec, true
	}
}

// huaweiStatus classifies a row. A zero run state register wins outright:
// the inverter is not running no matter what the state register claims.
func huaweiStatus(state int, stateOK bool, runState int, runOK bool) model.ErrorType {
	if runOK && runState == 0 {
		return model.ErrorOffline
	}
	if !stateOK {
		return model.ErrorUnknown
	}
	if et, ok := huaweiStates[state]; ok {
		return et
	}
	return model.ErrorUnknown
}
