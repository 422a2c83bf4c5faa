package model

import "time"

// Band maps a cumulative revenue range to the billing-cycle limit applied
// to stores whose revenue falls inside it. A nil MaxRevenue means the band
// is unbounded above.
type Band struct {
	ID         string   `json:"id" bson:"id"`
	MinRevenue float64  `json:"min_revenue" bson:"min_revenue"`
	MaxRevenue *float64 `json:"max_revenue" bson:"max_revenue"`
	CycleValue float64  `json:"cycle_value" bson:"cycle_value"`
}

// IsUnbounded returns true if the band has no upper bound.
func (b Band) IsUnbounded() bool {
	return b.MaxRevenue == nil
}

// Ladder is the ordered sequence of bands, ascending by MinRevenue.
type Ladder []Band

// Clone returns a deep copy of the ladder. Upper bounds are copied so the
// result never aliases the receiver.
func (l Ladder) Clone() Ladder {
	if l == nil {
		return nil
	}
	out := make(Ladder, len(l))
	for i, b := range l {
		if b.MaxRevenue != nil {
			v := *b.MaxRevenue
			b.MaxRevenue = &v
		}
		out[i] = b
	}
	return out
}

// Equal reports whether both ladders hold the same bands in the same order.
func (l Ladder) Equal(other Ladder) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		a, b := l[i], other[i]
		if a.ID != b.ID || a.MinRevenue != b.MinRevenue || a.CycleValue != b.CycleValue {
			return false
		}
		if (a.MaxRevenue == nil) != (b.MaxRevenue == nil) {
			return false
		}
		if a.MaxRevenue != nil && *a.MaxRevenue != *b.MaxRevenue {
			return false
		}
	}
	return true
}

// IndexOf returns the position of the band with the given ID, or -1.
func (l Ladder) IndexOf(id string) int {
	for i, b := range l {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Revenue returns a pointer to v, used for band upper bounds.
func Revenue(v float64) *float64 {
	return &v
}

// Field identifies one of the editable band fields.
type Field string

const (
	FieldMinRevenue Field = "minRevenue"
	FieldMaxRevenue Field = "maxRevenue"
	FieldCycleValue Field = "cycleValue"
)

// IsValid returns true for the three editable fields.
func (f Field) IsValid() bool {
	switch f {
	case FieldMinRevenue, FieldMaxRevenue, FieldCycleValue:
		return true
	default:
		return false
	}
}

// SaveReceipt describes the outcome of an accepted save.
type SaveReceipt struct {
	AccountID string    `json:"account_id"`
	Persister string    `json:"persister"`
	Revision  int       `json:"revision"`
	Bands     int       `json:"bands"`
	Unchanged bool      `json:"unchanged"`
	SavedAt   time.Time `json:"saved_at"`
}

// RevenueQuery asks which band applies to an account's cumulative revenue.
type RevenueQuery struct {
	AccountID string  `json:"account_id"`
	Revenue   float64 `json:"revenue"`
}

// CycleAssignment is the answer to a RevenueQuery.
type CycleAssignment struct {
	AccountID  string  `json:"account_id"`
	Revenue    float64 `json:"revenue"`
	BandID     string  `json:"band_id,omitempty"`
	CycleValue float64 `json:"cycle_value"`
	Error      string  `json:"error,omitempty"`
}
