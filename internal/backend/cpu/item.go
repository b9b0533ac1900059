package cpu

import (
	"iter"

	"github.com/born-ml/kernels/internal/kernel"
)

// item is the Context of one work-item. It is only touched by the group
// driver goroutine, so it needs no locking.
type item struct {
	idx     kernel.ItemIndex
	space   *kernel.IterationSpace
	group   *groupState
	private map[int]any

	yield    func(struct{}) bool
	active   bool
	failure  error
	barriers int
}

// Compile-time check that item implements kernel.Context.
var _ kernel.Context = (*item)(nil)

// run returns the item's control flow as a single-use sequence: every value
// yielded is a barrier, and the sequence ends when the body returns.
func (it *item) run(fn kernel.Func, args []any) iter.Seq[struct{}] {
	return func(yield func(struct{}) bool) {
		it.yield = yield
		it.active = true
		defer func() {
			it.active = false
			it.yield = nil
			it.private = nil
			if r := recover(); r != nil && r != errAborted {
				it.failure = panicError(r)
			}
		}()
		fn(it, args...)
	}
}

func (it *item) check(op string) {
	if !it.active {
		panic(kernel.Misuse(op))
	}
}

func (it *item) GlobalIndex() kernel.Index {
	it.check("GlobalIndex")
	return it.idx.Global
}

func (it *item) GlobalLinear() int {
	it.check("GlobalLinear")
	return it.idx.GlobalLinear
}

func (it *item) GroupIndex() kernel.Index {
	it.check("GroupIndex")
	return it.idx.Group
}

func (it *item) GroupLinear() int {
	it.check("GroupLinear")
	return it.idx.GroupLinear
}

func (it *item) LocalIndex() kernel.Index {
	it.check("LocalIndex")
	return it.idx.Local
}

func (it *item) LocalLinear() int {
	it.check("LocalLinear")
	return it.idx.LocalLinear
}

func (it *item) GroupSize() kernel.Size {
	it.check("GroupSize")
	return it.space.GroupSize()
}

func (it *item) NDRange() kernel.Size {
	it.check("NDRange")
	return it.space.NDRange()
}

func (it *item) Blocks() kernel.Size {
	it.check("Blocks")
	return it.space.Blocks()
}

// Barrier suspends the item until every other live item of the group has
// reached a barrier or returned.
func (it *item) Barrier() {
	it.check("Barrier")
	it.barriers++
	if !it.yield(struct{}{}) {
		panic(errAborted)
	}
}

// BarrierIf always synchronizes: items of a group share one control flow
// on the host, so skipping the rendezvous would break visibility ordering.
func (it *item) BarrierIf(bool) {
	it.check("BarrierIf")
	it.Barrier()
}

func (it *item) Scratch(scope kernel.Scope, id int, alloc func() any) any {
	it.check("Scratch")
	var m map[int]any
	switch scope {
	case kernel.GroupScope:
		m = it.group.scratch
	case kernel.ItemScope:
		if it.private == nil {
			it.private = make(map[int]any)
		}
		m = it.private
	default:
		panic(kernel.NewConfigurationError("Scratch", "unknown scope %d", int(scope)))
	}
	if v, ok := m[id]; ok {
		return v
	}
	v := alloc()
	m[id] = v
	return v
}
