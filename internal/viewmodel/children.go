package viewmodel

import (
	"context"
	"reflect"
	"slices"
)

type child struct {
	vm          ViewModel
	typ         reflect.Type
	singleton   bool
	unsubscribe []func()
}

// CreateChild creates a child of parent with factory and wires its events to
// the parent. With singleton set, an existing child of the same type is reused.
// configure runs on every call, including reuse.
func CreateChild[T ViewModel](parent *Base, singleton bool, factory func(Services) T, configure func(T)) T {
	typ := reflect.TypeFor[T]()
	if singleton {
		for _, c := range parent.children {
			if c.singleton && c.typ == typ {
				vm := c.vm.(T)
				if configure != nil {
					configure(vm)
				}
				return vm
			}
		}
	}

	vm := factory(parent.services)
	core := vm.Core()
	c := &child{vm: vm, typ: typ, singleton: singleton}
	c.unsubscribe = []func(){
		core.OnStateChanged(parent.NotifyStateChanged),
		core.OnAuthenticationRequired(parent.RequireAuthentication),
		core.OnUIAction(parent.RequestUIAction),
	}
	parent.children = append(parent.children, c)
	if configure != nil {
		configure(vm)
	}
	return vm
}

// Children returns the children in creation order.
func (b *Base) Children() []ViewModel {
	out := make([]ViewModel, 0, len(b.children))
	for _, c := range b.children {
		out = append(out, c.vm)
	}
	return out
}

// DisposeChild detaches vm from b and disposes it. Unknown children are ignored.
func (b *Base) DisposeChild(ctx context.Context, vm ViewModel) error {
	idx := slices.IndexFunc(b.children, func(c *child) bool { return c.vm.Core() == vm.Core() })
	if idx < 0 {
		return nil
	}
	c := b.children[idx]
	b.children = slices.Delete(b.children, idx, idx+1)
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	if d, ok := c.vm.(Disposer); ok {
		return d.Dispose(ctx)
	}
	return c.vm.Core().Dispose(ctx)
}
