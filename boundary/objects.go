package boundary

import (
	bridgeruntime "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/object"
)

// AcquireEntry increments the reference count of an object handle so the
// foreign side can hold an additional strong reference.
type AcquireEntry func(handle uint64, status *bridgeruntime.CallStatus)

// HandleReleaseEntry decrements an object handle's reference count,
// destroying the native instance when the count reaches zero.
type HandleReleaseEntry func(handle uint64, status *bridgeruntime.CallStatus)

// ObjectEntries builds the acquire/release boundary pair shared by every
// object type behind the binder's table. Both entries report a dangling
// handle through the status cell rather than panicking: the foreign side
// holding a stale handle is a boundary-level fault, not a native crash.
func (b *Binder) ObjectEntries() (AcquireEntry, HandleReleaseEntry) {
	acquire := func(handle uint64, status *bridgeruntime.CallStatus) {
		status.Reset()
		if b.objects == nil {
			status.SetFault("no object table bound")
			return
		}
		if !b.objects.Acquire(object.Handle(handle)) {
			status.SetFault(errors.DanglingHandle(errors.PhaseInvoke, nil, handle).Error())
		}
	}
	release := func(handle uint64, status *bridgeruntime.CallStatus) {
		status.Reset()
		if b.objects == nil {
			status.SetFault("no object table bound")
			return
		}
		if !b.objects.Release(object.Handle(handle)) {
			status.SetFault(errors.DanglingHandle(errors.PhaseRelease, nil, handle).Error())
		}
	}
	return acquire, release
}
