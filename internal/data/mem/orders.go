package mem

import (
	"sync"

	"github.com/defi-org-code/dotc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Orders keeps the order set in memory, preserving insertion order for
// enumeration. Used by tests and single-node runs; postgres is the durable
// alternative.
type Orders struct {
	mu   sync.RWMutex
	byID map[int64]data.Order
	ids  []int64
	next int64
}

func NewOrders() *Orders {
	return &Orders{byID: make(map[int64]data.Order)}
}

func (q *Orders) Insert(o data.Order) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	o.ID = q.next
	q.next++
	q.byID[o.ID] = o.Clone()
	q.ids = append(q.ids, o.ID)
	return o.ID, nil
}

func (q *Orders) Get(id int64) (*data.Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	o, ok := q.byID[id]
	if !ok {
		return nil, nil
	}
	c := o.Clone()
	return &c, nil
}

func (q *Orders) Update(o data.Order) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byID[o.ID]; !ok {
		return errors.Errorf("order %d does not exist", o.ID)
	}
	q.byID[o.ID] = o.Clone()
	return nil
}

func (q *Orders) Select() ([]data.Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]data.Order, 0, len(q.ids))
	for _, id := range q.ids {
		result = append(result, q.byID[id].Clone())
	}
	return result, nil
}
