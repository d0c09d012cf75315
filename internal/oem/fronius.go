package oem

import (
	"strconv"

	"github.com/speedwagon-io/odse/internal/model"
)

// froniusTransformer handles the Fronius Solar API Head/Body envelope in
// its three flavors: the site-wide PowerFlow snapshot, a single inverter
// realtime block, and a smart meter realtime block. All three share the
// Head timestamp.
type froniusTransformer struct{}

const froniusDefaultIntervalMinutes = 5

// froniusStates maps the inverter DeviceStatus code: 0-6 startup and
// production, 7-8 standby, 9 fault, 10 offline, 11-12 degraded operation.
var froniusStates = map[int]model.ErrorType{
	0:  model.ErrorNormal,
	1:  model.ErrorNormal,
	2:  model.ErrorNormal,
	3:  model.ErrorNormal,
	4:  model.ErrorNormal,
	5:  model.ErrorNormal,
	6:  model.ErrorNormal,
	7:  model.ErrorStandby,
	8:  model.ErrorStandby,
	9:  model.ErrorFault,
	10: model.ErrorOffline,
	11: model.ErrorWarning,
	12: model.ErrorWarning,
}

func (t froniusTransformer) Transform(data string, opts Options) ([]model.Record, error) {
	payload, err := parseJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return []model.Record{}, nil
	}
	hours := opts.intervalHours(froniusDefaultIntervalMinutes)

	head, _ := obj["Head"].(map[string]any)
	body, _ := obj["Body"].(map[string]any)
	block, _ := body["Data"].(map[string]any)

	ts, ok := toISO8601(head["Timestamp"], opts.Timezone)
	if !ok {
		return []model.Record{}, nil
	}

	if site, ok := block["Site"].(map[string]any); ok {
		return t.powerFlow(ts, site, head, hours, opts), nil
	}
	if _, ok := block["PAC"]; ok {
		return t.inverter(ts, block, hours, opts), nil
	}
	if _, ok := block["PowerReal_P_Sum"].(float64); ok {
		return t.meter(ts, block, hours, opts), nil
	}
	return []model.Record{}, nil
}

// powerFlow maps the GetPowerFlowRealtimeData site block. A non-zero Head
// status code degrades the record to warning.
func (froniusTransformer) powerFlow(ts string, site, head map[string]any, hours float64, opts Options) []model.Record {
	pvW, pvOK := toFloat(site["P_PV"])
	dayWh, dayOK := toFloat(site["E_Day"])
	statusCode, statusOK := toInt(deepGet(head, "Status", "Code"))

	errType := model.ErrorNormal
	if statusOK && statusCode != 0 {
		errType = model.ErrorWarning
	}
	code := ""
	if statusOK {
		code = strconv.Itoa(statusCode)
	}

	rec := baseRecord(ts, dailyEnergyKWh(dayWh, dayOK, pvW, hours), errType, code, opts.AssetID)
	if pvOK {
		rec.KW = model.Float(wattsToKW(pvW))
	}
	return []model.Record{rec}
}

// inverter maps GetInverterRealtimeData. PAC and SAC arrive in watt-scale
// units, DAY_ENERGY in Wh.
func (froniusTransformer) inverter(ts string, block map[string]any, hours float64, opts Options) []model.Record {
	pac, pacOK := toFloat(deepGet(block, "PAC", "Value"))
	sac, sacOK := toFloat(deepGet(block, "SAC", "Value"))
	dayWh, dayOK := toFloat(deepGet(block, "DAY_ENERGY", "Value"))
	statusCode, statusOK := toInt(deepGet(block, "DeviceStatus", "StatusCode"))

	errType := model.ErrorUnknown
	if statusOK {
		if et, ok := froniusStates[statusCode]; ok {
			errType = et
		}
	}
	code := ""
	if ec := deepGet(block, "DeviceStatus", "ErrorCode"); ec != nil {
		code = stringify(ec)
	}

	rec := baseRecord(ts, dailyEnergyKWh(dayWh, dayOK, pac, hours), errType, code, opts.AssetID)
	if pacOK {
		rec.KW = model.Float(wattsToKW(pac))
	}
	if sacOK {
		rec.KVA = model.Float(wattsToKW(sac))
		if pacOK && sac > 0 {
			rec.PF = model.Float(clamp01(pac / sac))
		}
	}
	return []model.Record{rec}
}

// meter maps GetMeterRealtimeData sum registers. The meter has no status
// vocabulary of its own, so records classify normal.
func (froniusTransformer) meter(ts string, block map[string]any, hours float64, opts Options) []model.Record {
	p, pOK := toFloat(block["PowerReal_P_Sum"])
	s, sOK := toFloat(block["PowerApparent_S_Sum"])
	q, qOK := toFloat(block["PowerReactive_Q_Sum"])
	producedWh, producedOK := toFloat(block["EnergyReal_WAC_Sum_Produced"])
	pf, pfOK := toFloat(block["PowerFactor_Sum"])

	rec := baseRecord(ts, dailyEnergyKWh(producedWh, producedOK, p, hours),
		model.ErrorNormal, "", opts.AssetID)
	if pOK {
		rec.KW = model.Float(wattsToKW(p))
	}
	if sOK {
		rec.KVA = model.Float(wattsToKW(s))
	}
	if qOK {
		rec.KVAr = model.Float(wattsToKW(q))
	}
	if pfOK {
		rec.PF = model.Float(clamp01(pf))
	}
	return []model.Record{rec}
}
