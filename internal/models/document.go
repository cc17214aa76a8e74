package models

// Document is an ordered key-value container for store content. Keys are
// strings, ints or floats; values are nested *Document, []any or JSON
// primitives. Iteration follows insertion order so listings built from a
// Document are deterministic.
type Document struct {
	keys []any
	vals map[any]any
}

func NewDocument() *Document {
	return &Document{vals: make(map[any]any)}
}

// normalizeKey collapses integer and float widths so that a key written as
// int64 and read back as int compare equal inside the container.
func normalizeKey(key any) any {
	switch k := key.(type) {
	case int64:
		return int(k)
	case int32:
		return int(k)
	case uint:
		return int(k)
	case uint32:
		return int(k)
	case uint64:
		return int(k)
	case float32:
		return float64(k)
	default:
		return key
	}
}

func (d *Document) Get(key any) (any, bool) {
	val, ok := d.vals[normalizeKey(key)]
	return val, ok
}

func (d *Document) Set(key any, val any) {
	key = normalizeKey(key)
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = val
}

func (d *Document) Delete(key any) {
	key = normalizeKey(key)
	if _, ok := d.vals[key]; !ok {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Document) Contains(key any) bool {
	_, ok := d.vals[normalizeKey(key)]
	return ok
}

func (d *Document) Len() int {
	return len(d.vals)
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []any {
	out := make([]any, len(d.keys))
	copy(out, d.keys)
	return out
}

// Range calls fn for each key-value pair in insertion order until fn
// returns false.
func (d *Document) Range(fn func(key, val any) bool) {
	for _, k := range d.keys {
		if !fn(k, d.vals[k]) {
			return
		}
	}
}
