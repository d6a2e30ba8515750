package game

// ResourceKind identifies a resource type. The four standard kinds are
// predefined; any other string is a valid custom kind.
type ResourceKind string

const (
	Energy     ResourceKind = "energy"
	Materials  ResourceKind = "materials"
	Ammunition ResourceKind = "ammunition"
	Supplies   ResourceKind = "supplies"
)

// StandardKinds lists the built-in kinds in display order
var StandardKinds = []ResourceKind{Energy, Materials, Ammunition, Supplies}

// Resource is a typed non-negative quantity held by exactly one owner.
type Resource struct {
	Kind   ResourceKind `json:"kind"`
	Amount float64      `json:"amount"`
}

// NewResource creates a resource. Negative amounts are stored as 0.
func NewResource(kind ResourceKind, amount float64) *Resource {
	if amount < 0 {
		amount = 0
	}
	return &Resource{Kind: kind, Amount: amount}
}

// Add increases the amount. Negative values are ignored so the amount can
// only go down through Subtract.
func (r *Resource) Add(amount float64) {
	if amount <= 0 {
		return
	}
	r.Amount += amount
}

// Subtract removes amount if enough is available
func (r *Resource) Subtract(amount float64) bool {
	if amount < 0 || amount > r.Amount {
		return false
	}
	r.Amount -= amount
	return true
}

// IsEmpty reports whether nothing is left
func (r *Resource) IsEmpty() bool {
	return r.Amount <= 0
}

// Clone returns an independent copy
func (r *Resource) Clone() *Resource {
	return &Resource{Kind: r.Kind, Amount: r.Amount}
}

// ResourceTable is a kind -> amount table used for configuration and
// snapshots.
type ResourceTable map[ResourceKind]float64

// Total sums every amount in the table
func (t ResourceTable) Total() float64 {
	total := 0.0
	for _, v := range t {
		total += v
	}
	return total
}

// Clone returns a copy of the table
func (t ResourceTable) Clone() ResourceTable {
	out := make(ResourceTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
