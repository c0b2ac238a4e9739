package pool

// affinity maps owners to the handle they currently hold. The pool's
// handle state is authoritative; an entry pointing at a handle that was
// reclaimed or handed to someone else is stale and dropped on lookup.
type affinity map[Owner]*Handle

func (a affinity) lookup(o Owner) *Handle {
	if o == "" {
		return nil
	}
	h, ok := a[o]
	if !ok {
		return nil
	}
	if !h.checkedOut || h.owner != o {
		delete(a, o)
		return nil
	}
	return h
}

func (a affinity) bind(o Owner, h *Handle) {
	if o != "" {
		a[o] = h
	}
}

func (a affinity) unbind(o Owner, h *Handle) {
	if cur, ok := a[o]; ok && cur == h {
		delete(a, o)
	}
}
