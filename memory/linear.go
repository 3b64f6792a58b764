package memory

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"go.uber.org/multierr"

	"github.com/wippyai/dynarray/errors"
)

// ExportName is the export name of the memory inside a Linear's module.
const ExportName = "memory"

// Linear is a WebAssembly linear memory owned by its own wazero runtime.
// Linear is not safe for concurrent use.
type Linear struct {
	*Wrapper
	runtime wazero.Runtime
	closed  bool
}

// NewLinear instantiates a module that only declares and exports one memory
// sized by cfg. A nil cfg uses defaults.
func NewLinear(ctx context.Context, cfg *Config) (*Linear, error) {
	initial, max := cfg.limits()

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(max))

	compiled, err := rt.CompileModule(ctx, memoryModule(initial, max))
	if err != nil {
		return nil, multierr.Append(
			errors.Wrap(errors.PhaseMemory, errors.KindInvalidData, err, "compile memory module"),
			rt.Close(ctx),
		)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, multierr.Append(
			errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "instantiate memory module"),
			rt.Close(ctx),
		)
	}

	return &Linear{
		Wrapper: WrapMemory(mod.ExportedMemory(ExportName)),
		runtime: rt,
	}, nil
}

// Runtime returns the wazero runtime owning the memory.
func (l *Linear) Runtime() wazero.Runtime {
	return l.runtime
}

// Close releases the runtime and the memory. Close is idempotent.
func (l *Linear) Close(ctx context.Context) error {
	if l.closed {
		return nil
	}
	l.closed = true
	return l.runtime.Close(ctx)
}

// memoryModule encodes a core module with a single memory exported as ExportName.
func memoryModule(minPages, maxPages uint32) []byte {
	var limits []byte
	limits = append(limits, 0x01) // has max
	limits = binary.AppendUvarint(limits, uint64(minPages))
	limits = binary.AppendUvarint(limits, uint64(maxPages))

	memSec := append([]byte{0x01}, limits...) // one memory

	expSec := []byte{0x01} // one export
	expSec = binary.AppendUvarint(expSec, uint64(len(ExportName)))
	expSec = append(expSec, ExportName...)
	expSec = append(expSec, 0x02, 0x00) // kind memory, index 0

	out := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}
	out = appendSection(out, 0x05, memSec)
	out = appendSection(out, 0x07, expSec)
	return out
}

func appendSection(dst []byte, id byte, content []byte) []byte {
	dst = append(dst, id)
	dst = binary.AppendUvarint(dst, uint64(len(content)))
	return append(dst, content...)
}
