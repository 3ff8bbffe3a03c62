package ingest

import (
	"github.com/vronney/orders-management-system/internal/model"
)

const defaultBatchSize = 1000

// Accumulator buffers validated records until a batch is full.
type Accumulator struct {
	records   []model.OrderRecord
	batchSize int
}

func NewAccumulator(batchSize int) *Accumulator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Accumulator{
		records:   make([]model.OrderRecord, 0, batchSize),
		batchSize: batchSize,
	}
}

func (a *Accumulator) Add(record model.OrderRecord) {
	a.records = append(a.records, record)
}

// Len reports the number of buffered records before deduplication.
func (a *Accumulator) Len() int {
	return len(a.records)
}

func (a *Accumulator) ShouldFlush() bool {
	return len(a.records) >= a.batchSize
}

// DrainDeduplicated collapses the buffer by order_id, keeping the last
// record seen for each key, and empties the buffer. Keys come out in
// first-seen order.
func (a *Accumulator) DrainDeduplicated() []model.OrderRecord {
	if len(a.records) == 0 {
		return nil
	}

	index := make(map[string]int, len(a.records))
	result := make([]model.OrderRecord, 0, len(a.records))
	for _, rec := range a.records {
		if pos, seen := index[rec.OrderID]; seen {
			result[pos] = rec
			continue
		}
		index[rec.OrderID] = len(result)
		result = append(result, rec)
	}

	a.records = a.records[:0]
	return result
}
