package heap

type scope uint8

const (
	scopeGlobal scope = iota
	scopeThread
	scopeTask
)

// Region is an arena of object slots addressed by key. Regions are guarded
// by the heap that owns them.
type Region struct {
	key   int
	scope scope
	slots []*Object
	keys  keyPool
	bytes int
}

func newRegion(key int, s scope) *Region {
	return &Region{key: key, scope: s}
}

// insert places obj under the lowest unused key.
func (r *Region) insert(obj *Object) int {
	key := r.keys.take()
	if key == len(r.slots) {
		r.slots = append(r.slots, obj)
	} else {
		r.slots[key] = obj
	}
	r.bytes += obj.Size
	return key
}

func (r *Region) get(key int) (*Object, bool) {
	if key < 0 || key >= len(r.slots) || r.slots[key] == nil {
		return nil, false
	}
	return r.slots[key], true
}

func (r *Region) remove(key int) (*Object, bool) {
	obj, ok := r.get(key)
	if !ok {
		return nil, false
	}
	r.slots[key] = nil
	r.keys.put(key)
	r.bytes -= obj.Size
	return obj, true
}

func (r *Region) used() int {
	return r.bytes
}
