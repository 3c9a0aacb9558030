// Package rain is the thin public surface over the parser, opcode
// registry, and code generator: parse Rain expressions and lower them
// to a StateConfig, spec §6's programmatic surface.
package rain

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"rain/internal/ast"
	"rain/internal/bytecode"
	"rain/internal/opcode"
	"rain/internal/parser"
)

// Registry re-exports internal/opcode's registry type so callers can
// build and pass their own via SetOpmeta without importing an internal
// package.
type Registry = opcode.Registry

// ParseTree re-exports internal/ast's tree type, the second return
// value of Parse/GetParseTree.
type ParseTree = ast.Tree

// StateConfig re-exports internal/bytecode's StateConfig, the
// deployable artifact.
type StateConfig = bytecode.StateConfig

// Default returns the built-in opcode registry (spec §4.1's table).
func Default() *Registry { return opcode.Default() }

// Parse parses text and lowers it to bytecode in one call, per spec
// §6's `parse(text, opmeta?, placeholder?) -> (ParseTree, StateConfig)`.
// A nil registry uses Default(); an empty placeholder uses "_".
func Parse(text string, registry *Registry, placeholder string) (*ParseTree, StateConfig) {
	if registry == nil {
		registry = Default()
	}
	tree, _ := parser.New(registry, placeholder).Parse(text)
	return tree, bytecode.Generate(tree, registry)
}

// GetParseTree parses text and returns only the parse tree, without
// running code generation.
func GetParseTree(text string, registry *Registry, placeholder string) *ParseTree {
	if registry == nil {
		registry = Default()
	}
	tree, _ := parser.New(registry, placeholder).Parse(text)
	return tree
}

// GetStateConfig parses text and returns only the generated
// StateConfig (the empty StateConfig if parsing produced any error).
func GetStateConfig(text string, registry *Registry, placeholder string) StateConfig {
	_, cfg := Parse(text, registry, placeholder)
	return cfg
}

// BuildBytes lowers an already-parsed value to a StateConfig, per spec
// §6's `build_bytes(tree | node | nodes, offset?, constants?) ->
// StateConfig`. target may be a *ParseTree, a single ast.Node, or an
// []ast.Node; a lone node or node slice is treated as the one root
// sub-expression of a single-source tree. argOffsets lets callers apply
// a non-zero per-source arg_offset vector (the ZIPMAP cross-source
// argument numbering of spec §4.6/§9 note 1); seedConstants lets
// callers share one constant index space across several BuildBytes
// calls by seeding the pool each call appends to. A nil argOffsets is
// treated as all zeroes; a nil seedConstants starts from an empty pool.
func BuildBytes(target interface{}, registry *Registry, argOffsets []int64, seedConstants []uint256.Int) StateConfig {
	if registry == nil {
		registry = Default()
	}
	switch v := target.(type) {
	case *ParseTree:
		return bytecode.GenerateWithOffsets(v, registry, argOffsets, seedConstants)
	case ast.Node:
		return bytecode.GenerateWithOffsets(singleNodeTree(v), registry, argOffsets, seedConstants)
	case []ast.Node:
		return bytecode.GenerateWithOffsets(singleNodeTree(v...), registry, argOffsets, seedConstants)
	default:
		return bytecode.Empty()
	}
}

// singleNodeTree wraps nodes as the lone sub-expression of a
// single-source tree, the shape GenerateWithOffsets expects.
func singleNodeTree(nodes ...ast.Node) *ParseTree {
	return &ParseTree{SubExprs: []ast.SubExpr{{RootNodes: nodes}}}
}

// SetOpmeta registers an opcode descriptor on registry, replacing
// whatever occupied its id slot. A name or alias already taken by a
// different descriptor is rejected with an error. Per spec §5 this is only safe between parse calls, never
// concurrently with one.
func SetOpmeta(registry *Registry, d *opcode.Descriptor) error {
	return registry.Set(d)
}

// SetGteMeta overrides the GTE pseudo-opcode's documentation metadata.
func SetGteMeta(registry *Registry, name, description string, data interface{}, aliases []string) {
	registry.SetGteMeta(name, description, data, aliases)
}

// SetLteMeta overrides the LTE pseudo-opcode's documentation metadata.
func SetLteMeta(registry *Registry, name, description string, data interface{}, aliases []string) {
	registry.SetLteMeta(name, description, data, aliases)
}

// SetIneqMeta overrides the INEQ pseudo-opcode's documentation
// metadata.
func SetIneqMeta(registry *Registry, name, description string, data interface{}, aliases []string) {
	registry.SetIneqMeta(name, description, data, aliases)
}

// OpmetaOverlayEntry is one opcode's JSON-overlay payload (spec §1): a
// documentation string and/or extra aliases to register against an
// already-loaded descriptor, without touching its arity, ParamsValid,
// or codec behaviour.
type OpmetaOverlayEntry struct {
	Doc     string   `json:"doc"`
	Aliases []string `json:"aliases"`
}

// ApplyOpmetaOverlay unmarshals data as a JSON object of {opcode_name:
// OpmetaOverlayEntry} and applies each entry to the matching
// already-registered descriptor on registry, letting callers register
// documentation payloads without recompiling (spec §1). Unlike
// SetOpmeta, it never registers a new opcode: a name that does not
// resolve against registry is an error.
func ApplyOpmetaOverlay(registry *Registry, data []byte) error {
	var overlay map[string]OpmetaOverlayEntry
	if err := json.Unmarshal(data, &overlay); err != nil {
		return err
	}
	for name, entry := range overlay {
		desc, ok := registry.Get(name)
		if !ok {
			return fmt.Errorf("opmeta overlay: unknown opcode %q", name)
		}
		if entry.Doc != "" {
			desc.Doc = entry.Doc
		}
		if len(entry.Aliases) > 0 {
			desc.Aliases = append(desc.Aliases, entry.Aliases...)
			if err := registry.Set(desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// Diagnostics returns every error message attached anywhere in tree,
// in tree order. Errors are in-tree (spec §7); this is a convenience
// accessor over ParseTree.CollectErrors for callers that just want the
// text.
func Diagnostics(tree *ParseTree) []string {
	errs := tree.CollectErrors()
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return msgs
}
