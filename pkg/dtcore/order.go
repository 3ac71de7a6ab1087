package dtcore

// TagEqual is the delta algebra's equality predicate: same property index,
// same element index, same key-ness. The remaining fields (field type,
// sub-property offset) are not compared here, and the delta walk does not
// check them either.
func TagEqual(a, b Tag) bool {
	return a.PropertyIndex == b.PropertyIndex && a.ElementIndex == b.ElementIndex && a.IsKey == b.IsKey
}

// IsTagFirst implements the tag ordering predicate. It is only meaningful
// for two tags belonging to the same structure.
func IsTagFirst(a, b Tag) bool {
	if a.PropertyIndex == b.PropertyIndex {
		if a.ElementIndex != b.ElementIndex {
			return a.ElementIndex < b.ElementIndex
		}
		return a.IsKey && !b.IsKey
	}
	if a.IsSuperStruct() {
		return true
	}
	if b.IsSuperStruct() {
		return false
	}
	return a.PropertyIndex < b.PropertyIndex
}
