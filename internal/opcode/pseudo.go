package opcode

// PseudoDescriptor is the metadata for a surface-syntax operator that
// lowers to a fixed instruction sequence rather than being emitted
// directly. Spec §4.1: GTE, LTE and INEQ "expose only name, aliases,
// doc_payload; they have no stable id" and may be overridden at runtime
// between parse calls via SetGteMeta/SetLteMeta/SetIneqMeta.
type PseudoDescriptor struct {
	Name        string
	Aliases     []string
	Description string
	Data        interface{}
}

func defaultGte() *PseudoDescriptor {
	return &PseudoDescriptor{
		Name:        "GTE",
		Aliases:     []string{"GREATER_THAN_EQUAL_TO", "GREATER-THAN-EQUAL-TO"},
		Description: "true if the first value is greater than or equal to the second; lowers to ISZERO(LESS_THAN(a,b))",
	}
}

func defaultLte() *PseudoDescriptor {
	return &PseudoDescriptor{
		Name:        "LTE",
		Aliases:     []string{"LESS_THAN_EQUAL_TO", "LESS-THAN-EQUAL-TO"},
		Description: "true if the first value is less than or equal to the second; lowers to ISZERO(GREATER_THAN(a,b))",
	}
}

func defaultIneq() *PseudoDescriptor {
	return &PseudoDescriptor{
		Name:        "INEQ",
		Aliases:     []string{"INEQUALITY", "NOT_EQUAL_TO"},
		Description: "true if the two values differ; lowers to ISZERO(EQUAL_TO(a,b))",
	}
}

// SetGteMeta overrides the GTE pseudo-opcode's documentation metadata.
// Any nil/empty argument leaves the corresponding field untouched.
func (r *Registry) SetGteMeta(name, description string, data interface{}, aliases []string) {
	setPseudoMeta(r.gte, name, description, data, aliases)
}

// SetLteMeta overrides the LTE pseudo-opcode's documentation metadata.
func (r *Registry) SetLteMeta(name, description string, data interface{}, aliases []string) {
	setPseudoMeta(r.lte, name, description, data, aliases)
}

// SetIneqMeta overrides the INEQ pseudo-opcode's documentation metadata.
func (r *Registry) SetIneqMeta(name, description string, data interface{}, aliases []string) {
	setPseudoMeta(r.ineq, name, description, data, aliases)
}

func setPseudoMeta(p *PseudoDescriptor, name, description string, data interface{}, aliases []string) {
	if name != "" {
		p.Name = name
	}
	if description != "" {
		p.Description = description
	}
	if data != nil {
		p.Data = data
	}
	if aliases != nil {
		p.Aliases = aliases
	}
}
