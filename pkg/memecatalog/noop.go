package memecatalog

// NoopObserver discards all observations
type NoopObserver struct{}

// RecordOperation does nothing
func (NoopObserver) RecordOperation(string, string, float64) {}

// RecordCompensation does nothing
func (NoopObserver) RecordCompensation(string) {}
