package record

// Item is the tagged value the Buffer actually carries. This replaces
// the source system's sentinel-as-record pattern (spec.md §9): rather
// than overloading Record with reserved field values to signal
// termination, an Item is either a data-bearing Record or the End
// marker, and the two are never confused at the type level.
type Item struct {
	rec Record
	end bool
}

// Data wraps a Record for transit through the Buffer.
func Data(r Record) Item {
	return Item{rec: r}
}

// End is the in-band termination marker. One is enqueued per Consumer
// by the Coordinator during drain.
func End() Item {
	return Item{end: true}
}

// IsEnd reports whether this item is the termination marker.
func (i Item) IsEnd() bool {
	return i.end
}

// Record returns the wrapped Record. It must only be called when
// IsEnd is false.
func (i Item) Record() Record {
	return i.rec
}
