package tree

// Capacities bundles the four node sizing parameters of a tree.
// A capacity is one plus the maximum number of entries a node of that
// kind may hold: capacity-1 entries fit, reaching capacity signals
// "must split". Minima bound underflow for non-root nodes.
type Capacities struct {
	DirCapacity  int `json:"dir_capacity"`
	LeafCapacity int `json:"leaf_capacity"`
	DirMinimum   int `json:"dir_minimum"`
	LeafMinimum  int `json:"leaf_minimum"`
}

// TreeIndexHeader is the persisted record identifying a tree in a page
// file: the page size plus the four capacity parameters. It is written
// once when a store is first created and read back verbatim on
// reattach; the persisted values are authoritative from then on.
type TreeIndexHeader struct {
	PageSize     int `json:"page_size"`
	DirCapacity  int `json:"dir_capacity"`
	LeafCapacity int `json:"leaf_capacity"`
	DirMinimum   int `json:"dir_minimum"`
	LeafMinimum  int `json:"leaf_minimum"`
}

// NewTreeIndexHeader builds a header from the page size and sizing
// parameters.
func NewTreeIndexHeader(pageSize int, caps Capacities) *TreeIndexHeader {
	return &TreeIndexHeader{
		PageSize:     pageSize,
		DirCapacity:  caps.DirCapacity,
		LeafCapacity: caps.LeafCapacity,
		DirMinimum:   caps.DirMinimum,
		LeafMinimum:  caps.LeafMinimum,
	}
}

// Capacities returns the sizing parameters recorded in the header.
func (h *TreeIndexHeader) Capacities() Capacities {
	return Capacities{
		DirCapacity:  h.DirCapacity,
		LeafCapacity: h.LeafCapacity,
		DirMinimum:   h.DirMinimum,
		LeafMinimum:  h.LeafMinimum,
	}
}

func (h *TreeIndexHeader) setCapacities(caps Capacities) {
	h.DirCapacity = caps.DirCapacity
	h.LeafCapacity = caps.LeafCapacity
	h.DirMinimum = caps.DirMinimum
	h.LeafMinimum = caps.LeafMinimum
}
