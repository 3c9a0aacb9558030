// Package opcode implements the OpMetaRegistry and OperandCodec of the
// specification: an immutable, indexable table of opcode descriptors,
// each carrying an input/output arity, a parameter-count validator, and
// a codec that packs/unpacks its 16-bit operand.
package opcode

import (
	"fmt"

	rerrors "rain/internal/errors"
)

// Dynamic marks an InputArity function result meaning "the arity equals
// whatever the parameter count turns out to be" (spec's `Dynamic` arity
// for reducers such as ADD/MUL/HASH, and for other opcodes whose param
// count is not a constant, such as DO_WHILE/LOOP_N/SELECT_LTE).
const Dynamic = -1

// ArityFunc computes an arity as a function of the resolved operand.
type ArityFunc func(operand uint16) int

// ParamsValidFunc reports whether a parameter count is legal for an
// opcode, independent of the operand's encoded value.
type ParamsValidFunc func(paramCount int) bool

// Codec packs a small vector of integer operand-arguments (and, for
// several opcodes, the surrounding parameter count) into the opcode's
// 16-bit operand, and unpacks it back.
type Codec struct {
	// IsZero means the operand is always 0 and the opcode accepts no
	// <...> operand-arguments at all.
	IsZero bool

	// Encode packs args (and, where the codec's rules need it, the
	// parameter count) into a u16 operand. It returns an error
	// identifying the offending argument index on any out-of-range
	// value, per spec's "out-of-bound operand argument at index i".
	Encode func(args []int64, paramCount int) (uint16, error)

	// Decode is Encode's inverse: given an operand, it reconstructs the
	// argument vector. A handful of opcodes (documented at their
	// construction site) decode to a derived value rather than the
	// literal encode inputs; see IERC1155_BALANCE_OF_BATCH.
	Decode func(operand uint16) []int64
}

// Descriptor is one opcode's full metadata: name, aliases, arity
// functions, parameter validator, codec, and documentation payload.
type Descriptor struct {
	ID            uint16
	Name          string
	Aliases       []string
	InputArity    ArityFunc
	OutputArity   ArityFunc
	ParamsValid   ParamsValidFunc
	Codec         Codec
	Doc           string

	// OutputArityCtx, when non-nil, overrides OutputArity with a
	// parameter-count-aware hook. Spec calls this out explicitly for
	// DO_WHILE ("output_arity resolves from the configured
	// doWhileOutputs function"); LOOP_N also sets it, and it is nil for
	// every other opcode.
	OutputArityCtx func(operand uint16, paramCount int) int
}

// ResolveOutputArity returns the effective output arity for a resolved
// operand, honouring OutputArityCtx when present.
func (d *Descriptor) ResolveOutputArity(operand uint16, paramCount int) int {
	if d.OutputArityCtx != nil {
		return d.OutputArityCtx(operand, paramCount)
	}
	return d.OutputArity(operand)
}

// Registry is the immutable-at-parse-time table of opcode descriptors,
// indexed both by stable numeric id and by normalised name/alias. Per
// spec §5, mutation (Set/SetGteMeta/SetLteMeta/SetIneqMeta) is only safe
// between parse calls, never concurrently with one.
type Registry struct {
	byID   []*Descriptor
	byName map[string]*Descriptor

	gte, lte, ineq *PseudoDescriptor

	// DoWhileOutputs is the configurable hook backing DO_WHILE's
	// output arity (spec §8: "operand = 1, output_arity resolves from
	// the configured doWhileOutputs function"). Defaults to
	// paramCount-1 (every state variable but the trailing condition).
	DoWhileOutputs func(paramCount int) int
}

// NewRegistry builds an empty registry; callers normally want Default.
func NewRegistry() *Registry {
	return &Registry{
		byName:         make(map[string]*Descriptor),
		gte:            defaultGte(),
		lte:            defaultLte(),
		ineq:           defaultIneq(),
		DoWhileOutputs: func(paramCount int) int { return paramCount - 1 },
	}
}

// Set registers a descriptor, indexing it by id and by every normalised
// name/alias. A name collision with an already-registered opcode is a
// fatal registry-load error, per spec §9's design note on alias tables.
func (r *Registry) Set(d *Descriptor) error {
	for int(d.ID) >= len(r.byID) {
		r.byID = append(r.byID, nil)
	}
	r.byID[d.ID] = d
	for _, name := range append([]string{d.Name}, d.Aliases...) {
		key := normalize(name)
		if existing, ok := r.byName[key]; ok && existing != d {
			return rerrors.Wrap(fmt.Errorf("duplicate opcode name/alias %q (already %s)", key, existing.Name), "registry load")
		}
		r.byName[key] = d
	}
	return nil
}

// Get looks up a descriptor by name or alias (case/dash insensitive).
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.byName[normalize(name)]
	return d, ok
}

// GetByID looks up a descriptor by its stable numeric id.
func (r *Registry) GetByID(id uint16) (*Descriptor, bool) {
	if int(id) >= len(r.byID) || r.byID[id] == nil {
		return nil, false
	}
	return r.byID[id], true
}

// Size returns the number of stable-id opcode slots in the registry. The
// code generator uses this value as the sentinel opcode_id for
// unresolved arg(n) references, since it is guaranteed to exceed every
// real opcode id.
func (r *Registry) Size() int { return len(r.byID) }

// Gte, Lte, Ineq expose the three pseudo-opcode descriptors. They carry
// no stable id: the parser recognises them by name only, and the code
// generator lowers them to a fixed instruction sequence rather than
// emitting them directly (spec §4.4).
func (r *Registry) Gte() *PseudoDescriptor  { return r.gte }
func (r *Registry) Lte() *PseudoDescriptor  { return r.lte }
func (r *Registry) Ineq() *PseudoDescriptor { return r.ineq }

// GetPseudo looks up GTE/LTE/INEQ by name/alias, returning nil if name
// does not match any of the three.
func (r *Registry) GetPseudo(name string) *PseudoDescriptor {
	n := normalize(name)
	for _, p := range []*PseudoDescriptor{r.gte, r.lte, r.ineq} {
		if n == normalize(p.Name) {
			return p
		}
		for _, a := range p.Aliases {
			if n == normalize(a) {
				return p
			}
		}
	}
	return nil
}

func normalize(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			c = '_'
		} else if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
