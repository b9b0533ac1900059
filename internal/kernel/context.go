package kernel

// Context is the per-work-item view of a running launch. Backends create
// one for every work-item that executes the kernel body. All indices are
// 0-based and linear indices flatten in row-major order.
//
// Calling any method after the body has returned panics with a
// synchronization misuse error.
type Context interface {
	// GlobalIndex is the item's coordinate in the full iteration space.
	GlobalIndex() Index
	// GlobalLinear flattens GlobalIndex over the true ndrange.
	GlobalLinear() int
	// GroupIndex is the coordinate of the item's group in the block grid.
	GroupIndex() Index
	// GroupLinear flattens GroupIndex over the block grid.
	GroupLinear() int
	// LocalIndex is the item's coordinate inside its group.
	LocalIndex() Index
	// LocalLinear flattens LocalIndex over the group size.
	LocalLinear() int

	GroupSize() Size
	NDRange() Size
	Blocks() Size

	// Barrier makes every group-local and global write issued by items of
	// the group before the barrier visible to all of them after it.
	Barrier()
	// BarrierIf is a barrier guarded by a side-effect-free predicate.
	// Backends that run the items of a group as one sequential control
	// flow synchronize regardless of pred.
	BarrierIf(pred bool)

	// Scratch returns the allocation registered under id in the given
	// scope, creating it with alloc on first use.
	Scratch(scope Scope, id int, alloc func() any) any
}

// ItemIndex holds every index view of one work-item.
type ItemIndex struct {
	Group, Local, Global                  Index
	GroupLinear, LocalLinear, GlobalLinear int
}

// Resolve computes the index views of the work-item at position
// localLinear inside group groupLinear. GlobalLinear is only meaningful when
// Global lies inside the true ndrange.
func Resolve(space IterationSpace, groupLinear, localLinear int) ItemIndex {
	group := space.blocks.Cartesian(groupLinear)
	local := space.group.Cartesian(localLinear)
	global := space.Global(group, local)
	return ItemIndex{
		Group:        group,
		Local:        local,
		Global:       global,
		GroupLinear:  groupLinear,
		LocalLinear:  localLinear,
		GlobalLinear: space.ndrange.Linear(global),
	}
}

// Misuse returns the error raised when op is invoked outside an active
// kernel-body execution.
func Misuse(op string) error {
	return misuse(op)
}
