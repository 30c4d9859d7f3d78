package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsExportCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.IncMatchTransition("accept")
	m.IncMatchTransition("accept")
	m.IncMessagePosted()
	m.IncDocumentOp("generate")
	m.IncUploadRetry()
	m.IncFeedReset()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := counterValue(mfs, "match_transitions_total", "action", "accept"); err != nil {
		t.Fatal(err)
	} else if got != 2 {
		t.Fatalf("expected 2 accepts, got %f", got)
	}
	if got, err := counterValue(mfs, "document_operations_total", "op", "generate"); err != nil {
		t.Fatal(err)
	} else if got != 1 {
		t.Fatalf("expected 1 generate, got %f", got)
	}
	if got, err := counterValue(mfs, "chat_messages_posted_total", "", ""); err != nil {
		t.Fatal(err)
	} else if got != 1 {
		t.Fatalf("expected 1 message, got %f", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.IncMatchTransition("like")
	m.IncMessagePosted()
	m.IncDocumentOp("sign")
	m.IncUploadRetry()
	m.IncFeedReset()
}

func counterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label == "" {
				return metric.GetCounter().GetValue(), nil
			}
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue(), nil
				}
			}
		}
	}
	return 0, fmt.Errorf("metric %q{%s=%q} not found", name, label, value)
}
