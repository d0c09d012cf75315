package sink

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/speedwagon-io/odse/internal/config"
	"github.com/speedwagon-io/odse/internal/model"
)

// InfluxSink writes one point per record to an InfluxDB v2 bucket.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

func NewInfluxSink(cfg config.InfluxSinkConfig) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (s *InfluxSink) Name() string {
	return "influx"
}

func (s *InfluxSink) Publish(ctx context.Context, envelope *model.ResultEnvelope) error {
	points := make([]*write.Point, 0, len(envelope.Records))
	for i := range envelope.Records {
		points = append(points, recordPoint(envelope, &envelope.Records[i]))
	}

	if err := s.write.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("failed to write points: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func recordPoint(envelope *model.ResultEnvelope, rec *model.Record) *write.Point {
	tags := map[string]string{
		"source":     envelope.Source,
		"error_type": string(rec.ErrorType),
	}
	if rec.AssetID != "" {
		tags["asset_id"] = rec.AssetID
	}

	fields := map[string]any{
		"kwh": rec.KWh,
	}
	addField(fields, "kw", rec.KW)
	addField(fields, "kva", rec.KVA)
	addField(fields, "kvar", rec.KVAr)
	addField(fields, "kvarh", rec.KVArh)
	addField(fields, "pf", rec.PF)
	addField(fields, "voltage_ac", rec.VoltageAC)
	addField(fields, "current_ac", rec.CurrentAC)
	addField(fields, "frequency", rec.Frequency)
	addField(fields, "temperature", rec.Temperature)
	if rec.ErrorCode != "" {
		fields["error_code"] = rec.ErrorCode
	}
	if rec.OEMErrorCode != "" {
		fields["oem_error_code"] = rec.OEMErrorCode
	}

	return write.NewPoint("odse_record", tags, fields, recordTime(envelope, rec))
}

func addField(fields map[string]any, name string, v *float64) {
	if v != nil {
		fields[name] = *v
	}
}

// recordTime anchors the point at the reading's own timestamp, falling back
// to the envelope's generation time.
func recordTime(envelope *model.ResultEnvelope, rec *model.Record) time.Time {
	if t, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
		return t
	}
	return envelope.GeneratedAt
}
