package telemetry

import (
	"testing"
	"time"
)

func BenchmarkAggregator_RecordHit(b *testing.B) {
	agg := NewAggregator(DefaultRingCapacity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.RecordHit(time.Millisecond)
	}
}

func BenchmarkAggregator_Snapshot(b *testing.B) {
	agg := NewAggregator(DefaultRingCapacity)
	for i := 0; i < DefaultRingCapacity; i++ {
		agg.RecordAuthoritative(time.Duration(i) * time.Microsecond)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Snapshot()
	}
}
