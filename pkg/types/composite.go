package types

import "github.com/google/uuid"

// JSONMap holds opaque key-value metadata stored as jsonb.
type JSONMap map[string]any

// UUIDList is a jsonb-serialized list of identifiers, used for the batch
// labels denormalized onto orders.
type UUIDList []uuid.UUID

// Contains reports whether id is present in the list.
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, candidate := range l {
		if candidate == id {
			return true
		}
	}
	return false
}

// Add appends id when it is not already present.
func (l UUIDList) Add(id uuid.UUID) UUIDList {
	if l.Contains(id) {
		return l
	}
	return append(l, id)
}

// Remove drops id from the list when present.
func (l UUIDList) Remove(id uuid.UUID) UUIDList {
	out := make(UUIDList, 0, len(l))
	for _, candidate := range l {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
