// Package fixtures carries one representative payload per supported vendor
// source. The harness exercises every transformer against them, and they
// double as executable documentation of each input shape.
package fixtures

import "github.com/speedwagon-io/odse/internal/oem"

// Fixture pairs a raw payload with the transform options it expects.
type Fixture struct {
	Payload string
	Options oem.Options
}

const huaweiCSV = `timestamp,power,inverter_state,run_state
2026-02-09 12:00:00,10,512,1
`

const enphaseJSON = `[{"end_at": 1739102400, "wh_del": 3500, "devices_reporting": 9}]`

const solarmanCSV = `Update Time,Generation(kWh),Device State,Power(W)
2026-02-09 12:00:00,100.0,Operating,500
2026-02-09 12:05:00,100.6,Operating,600
`

const switchCSV = `timestampISO,dP1,dP2,dQ1,dQ2
2026-02-09 12:00:00,1000,,200,
`

const solaxcloudJSON = `{
  "success": true,
  "code": 0,
  "result": {
    "uploadTime": "2026-02-09 12:00:00",
    "acpower": 4200.0,
    "yieldtoday": 18.4,
    "inverterStatus": "102"
  }
}`

const fimerJSON = `{
  "series": [{"date": "2026-02-08", "energy": 15000, "unit": "Wh"}]
}`

const solarEdgeJSON = `{
  "data": {
    "telemetries": [
      {
        "date": "2026-02-09 12:00:00",
        "totalActivePower": 5000,
        "inverterMode": "MPPT",
        "operationMode": 1,
        "L1Data": {
          "apparentPower": 5200,
          "reactivePower": 400,
          "cosPhi": 0.96
        }
      }
    ]
  }
}`

const froniusJSON = `{
  "Head": {"Timestamp": "2026-02-09T12:00:00Z", "Status": {"Code": 0}},
  "Body": {"Data": {"Site": {"P_PV": 4200, "E_Day": 13500}}}
}`

const smaJSON = `{
  "records": [
    {
      "normalized": {
        "timestamp": "2026-02-09T12:00:00Z",
        "active_power_w": 3000,
        "active_energy_wh": 2500,
        "status_code": "ONLINE",
        "event_severity": "warning",
        "event_code": "E101"
      }
    }
  ]
}`

const solisJSON = `{
  "records": [
    {
      "normalized": {
        "timestamp": "2026-02-09T12:00:00Z",
        "active_power_w": 4600,
        "inverter_status": "running",
        "status_code": "200",
        "temperature_c": 41.2
      }
    }
  ]
}`

// The enphase fixture reports 9 of an expected 10 devices so the harness
// exercises the reporting-ratio classifier below its healthy threshold.
var fixtures = map[string]Fixture{
	"huawei":     {Payload: huaweiCSV},
	"enphase":    {Payload: enphaseJSON, Options: oem.Options{ExpectedDevices: 10}},
	"solarman":   {Payload: solarmanCSV},
	"switch":     {Payload: switchCSV},
	"solaxcloud": {Payload: solaxcloudJSON},
	"fimer":      {Payload: fimerJSON},
	"solaredge":  {Payload: solarEdgeJSON},
	"fronius":    {Payload: froniusJSON},
	"sma":        {Payload: smaJSON},
	"solis":      {Payload: solisJSON},
}

// Get returns the fixture for a canonical source identifier.
func Get(source string) (Fixture, bool) {
	fx, ok := fixtures[source]
	return fx, ok
}

// Sources lists every source that has a fixture, in the engine's canonical
// order.
func Sources() []string {
	return oem.Sources()
}
