package cpu

import (
	"errors"
	"fmt"
	"iter"

	"golang.org/x/sys/cpu"

	"github.com/born-ml/kernels/internal/kernel"
)

// workerCounters is owned by one worker goroutine during a launch.
type workerCounters struct {
	groups  int64
	items   int64
	skipped int64
	_       cpu.CacheLinePad
}

// groupState is shared by the items of one group for one launch.
type groupState struct {
	scratch map[int]any
}

// runGroup executes group g of l.
//
// Every in-range item becomes a coroutine. The driver resumes each live
// item in local-index order until it reaches its next barrier or returns;
// once all live items have been resumed, the next phase starts. Writes made
// before a barrier are therefore visible to every item after it.
func runGroup(l *kernel.Launch, fn kernel.Func, g int, counters *workerCounters) error {
	space := l.Space
	n := space.GroupItems()
	grp := &groupState{scratch: make(map[int]any)}

	items := make([]*item, 0, n)
	nexts := make([]func() (struct{}, bool), 0, n)
	stops := make([]func(), 0, n)
	defer func() {
		for _, stop := range stops {
			stop()
		}
	}()

	for li := 0; li < n; li++ {
		idx := kernel.Resolve(space, g, li)
		if l.Dynamic && !space.InBounds(idx.Global) {
			counters.skipped++
			continue
		}
		it := &item{idx: idx, space: &space, group: grp}
		next, stop := iter.Pull(it.run(fn, l.Args))
		items = append(items, it)
		nexts = append(nexts, next)
		stops = append(stops, stop)
	}

	live := len(items)
	done := make([]bool, len(items))
	for phase := 0; live > 0; phase++ {
		for k, it := range items {
			if done[k] {
				continue
			}
			if _, ok := nexts[k](); ok {
				continue
			}
			done[k] = true
			live--
			if it.failure != nil {
				return kernel.NewExecutionError("Launch",
					fmt.Sprintf("kernel %q: work-item %v of group %v failed in phase %d",
						l.Descriptor.Body().Name(), it.idx.Global, it.idx.Group, phase),
					it.failure)
			}
		}
	}

	counters.groups++
	counters.items += int64(len(items))
	return nil
}

// errAborted unwinds a suspended item whose group is being torn down.
var errAborted = errors.New("cpu: group aborted")

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
