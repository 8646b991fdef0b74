// Package telemetry receives OTLP HTTP/protobuf metrics exported by Claude
// Code sessions and turns them into usage samples for the session ledger.
package telemetry

import (
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	collectormetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

const maxOTLPBodySize = 4 * 1024 * 1024 // 4 MB

// UsageSample is the usage delta decoded from one metrics export.
type UsageSample struct {
	Service      string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

func (s UsageSample) empty() bool {
	return s.InputTokens == 0 && s.OutputTokens == 0 && s.Cost == 0
}

// Sink receives decoded usage samples. Implementations must be safe for
// concurrent use; the receiver calls Observe from HTTP handler goroutines.
type Sink interface {
	Observe(UsageSample)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(UsageSample)

func (f SinkFunc) Observe(s UsageSample) { f(s) }

// Receiver handles incoming OTLP HTTP/protobuf metric requests and forwards
// decoded usage samples to a Sink.
type Receiver struct {
	mux     *http.ServeMux
	sink    Sink
	limiter *rate.Limiter
}

func NewReceiver(sink Sink) *Receiver {
	r := &Receiver{
		mux:     http.NewServeMux(),
		sink:    sink,
		limiter: rate.NewLimiter(100, 20), // 100 req/s, burst 20
	}
	r.mux.HandleFunc("POST /v1/metrics", r.handleMetrics)
	return r
}

func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	r.mux.ServeHTTP(w, req)
}

func (r *Receiver) handleMetrics(w http.ResponseWriter, req *http.Request) {
	body, err := readLimited(req, maxOTLPBodySize)
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var exportReq collectormetrics.ExportMetricsServiceRequest
	if err := proto.Unmarshal(body, &exportReq); err != nil {
		http.Error(w, "invalid protobuf", http.StatusBadRequest)
		return
	}

	for _, rm := range exportReq.ResourceMetrics {
		sample := UsageSample{Service: extractServiceName(rm.Resource)}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				accumulateMetric(&sample, m)
			}
		}
		if !sample.empty() {
			r.sink.Observe(sample)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "{}")
}

func accumulateMetric(sample *UsageSample, m *metricspb.Metric) {
	for _, dp := range extractDataPoints(m) {
		if sample.Model == "" {
			if v, ok := dp.attrs["model"]; ok {
				sample.Model = v
			}
		}
		switch m.Name {
		case "claude_code.cost.usage":
			sample.Cost += dp.value
		case "claude_code.token.usage":
			switch dp.attrs["type"] {
			case "input":
				sample.InputTokens += int64(dp.value)
			case "output":
				sample.OutputTokens += int64(dp.value)
			}
		}
	}
}

type dataPoint struct {
	value float64
	attrs map[string]string
}

func extractDataPoints(m *metricspb.Metric) []dataPoint {
	switch d := m.Data.(type) {
	case *metricspb.Metric_Sum:
		return numberDataPoints(d.Sum.DataPoints)
	case *metricspb.Metric_Gauge:
		return numberDataPoints(d.Gauge.DataPoints)
	}
	return nil
}

func numberDataPoints(dps []*metricspb.NumberDataPoint) []dataPoint {
	result := make([]dataPoint, 0, len(dps))
	for _, dp := range dps {
		var val float64
		switch v := dp.Value.(type) {
		case *metricspb.NumberDataPoint_AsDouble:
			val = v.AsDouble
		case *metricspb.NumberDataPoint_AsInt:
			val = float64(v.AsInt)
		}
		result = append(result, dataPoint{
			value: val,
			attrs: flattenAttributes(dp.Attributes),
		})
	}
	return result
}

func readLimited(req *http.Request, maxBytes int64) ([]byte, error) {
	limited := http.MaxBytesReader(nil, req.Body, maxBytes)
	defer limited.Close()
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func extractServiceName(res *resourcepb.Resource) string {
	if res == nil {
		return "unknown"
	}
	for _, attr := range res.Attributes {
		if attr.Key == "service.name" {
			if sv, ok := attr.Value.Value.(*commonpb.AnyValue_StringValue); ok {
				return sv.StringValue
			}
		}
	}
	return "unknown"
}

func flattenAttributes(attrs []*commonpb.KeyValue) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	result := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		result[kv.Key] = anyValueToString(kv.Value)
	}
	return result
}

func anyValueToString(v *commonpb.AnyValue) string {
	if v == nil {
		return ""
	}
	switch val := v.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_IntValue:
		return fmt.Sprintf("%d", val.IntValue)
	case *commonpb.AnyValue_DoubleValue:
		return fmt.Sprintf("%g", val.DoubleValue)
	case *commonpb.AnyValue_BoolValue:
		return fmt.Sprintf("%t", val.BoolValue)
	default:
		return fmt.Sprintf("%v", v.Value)
	}
}
