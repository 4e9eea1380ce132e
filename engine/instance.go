package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/pidview"
	"github.com/wippyai/pidview/bridge"
	"github.com/wippyai/pidview/errors"
)

// Instance is one instantiation of the guest.
type Instance struct {
	mod      api.Module
	decode   api.Function
	memory   *Memory
	heapBase uint32
	capacity uint32
}

// HeapBase returns the guest address of arena offset zero.
func (i *Instance) HeapBase() uint32 {
	return i.heapBase
}

// Capacity returns the number of bytes available to an arena above the
// heap base under the engine's memory limit.
func (i *Instance) Capacity() uint32 {
	return i.capacity
}

// Memory returns a read view of the instance's linear memory.
func (i *Instance) Memory() *Memory {
	return i.memory
}

// Decode runs the guest's decode export with b bound for host calls and
// returns the frame pointer it produced.
func (i *Instance) Decode(ctx context.Context, b *bridge.Binding) (ptr uint32, err error) {
	if i.mod == nil {
		return 0, errors.NotInitialized(errors.PhaseDecode, "instance")
	}
	if b == nil {
		return 0, errors.NotInitialized(errors.PhaseDecode, "binding")
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.ModuleTrap(pidview.ExportDecode, fmt.Errorf("panic: %v", r))
		}
	}()

	results, callErr := i.decode.Call(bridge.WithBinding(ctx, b))
	if fault := b.Fault(); fault != nil {
		Logger().Debug("decode faulted in host call", zap.Error(fault))
		return 0, fault
	}
	if callErr != nil {
		Logger().Debug("decode trapped", zap.Error(callErr))
		return 0, errors.ModuleTrap(pidview.ExportDecode, callErr)
	}
	if len(results) != 1 {
		return 0, errors.ModuleTrap(pidview.ExportDecode, fmt.Errorf("decode returned %d results", len(results)))
	}
	return api.DecodeU32(results[0]), nil
}

// Close releases the instance. Calling Close more than once is a no-op.
func (i *Instance) Close(ctx context.Context) error {
	if i.mod == nil {
		return nil
	}
	err := i.mod.Close(ctx)
	i.mod = nil
	i.decode = nil
	i.memory = &Memory{}
	return err
}
