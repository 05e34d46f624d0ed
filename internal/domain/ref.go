package domain

import "strconv"

// Ref points at a wallet or category either by id or by name.
// Names are only accepted at the input boundary; they are resolved to ids before any write.
type Ref struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// RefByID builds a Ref from an id
func RefByID(id uint) Ref { return Ref{ID: id} }

// RefByName builds a Ref from a display name
func RefByName(name string) Ref { return Ref{Name: name} }

// IsZero reports whether neither id nor name is set
func (r Ref) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

func (r Ref) String() string {
	if r.ID != 0 {
		return "#" + strconv.FormatUint(uint64(r.ID), 10)
	}
	return strconv.Quote(r.Name)
}
