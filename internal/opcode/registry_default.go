package opcode

// Stable opcode ids, one per descriptor registered by Default. Every id
// is exported; descriptors are also reachable through the registry by
// normalised name.
const (
	IDBlockNumber uint16 = iota
	IDLessThan
	IDGreaterThan
	IDEqualTo
	IDIsZero
	IDEagerIf
	IDAdd
	IDMul
	IDHash
	IDAny
	IDEnsure
	IDCall
	IDContext
	IDLoopN
	IDState
	IDStorage
	IDDoWhile
	IDScaleBy
	IDSelectLte
	IDItierV2Report
	IDUpdateTimesForTierRange
	IDIerc1155BalanceOfBatch
	IDIsaleV2Token
	IDIsaleV2TotalReserveReceived
)

// Default builds the registry described by spec §4.1's table: one
// descriptor per opcode kind, covering every codec shape the
// specification names.
func Default() *Registry {
	r := NewRegistry()

	constFn := func(n int) ArityFunc { return func(uint16) int { return n } }
	dynFn := func(uint16) int { return Dynamic }

	must := func(d *Descriptor) {
		if err := r.Set(d); err != nil {
			panic(err)
		}
	}

	must(&Descriptor{
		ID: IDBlockNumber, Name: "BLOCK_NUMBER",
		InputArity: constFn(0), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 0 },
		Codec:       zeroCodec,
		Doc:         "pushes the current block number onto the stack",
	})
	must(&Descriptor{
		ID: IDLessThan, Name: "LESS_THAN", Aliases: []string{"LT"},
		InputArity: constFn(2), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 2 },
		Codec:       zeroCodec,
		Doc:         "1 if the first value is strictly less than the second, else 0",
	})
	must(&Descriptor{
		ID: IDGreaterThan, Name: "GREATER_THAN", Aliases: []string{"GT"},
		InputArity: constFn(2), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 2 },
		Codec:       zeroCodec,
		Doc:         "1 if the first value is strictly greater than the second, else 0",
	})
	must(&Descriptor{
		ID: IDEqualTo, Name: "EQUAL_TO", Aliases: []string{"EQ"},
		InputArity: constFn(2), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 2 },
		Codec:       zeroCodec,
		Doc:         "1 if the two values are equal, else 0",
	})
	must(&Descriptor{
		ID: IDIsZero, Name: "ISZERO",
		InputArity: constFn(1), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 1 },
		Codec:       zeroCodec,
		Doc:         "1 if the value is 0, else 0",
	})
	must(&Descriptor{
		ID: IDEagerIf, Name: "EAGER_IF", Aliases: []string{"IF"},
		InputArity: constFn(3), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 3 },
		Codec:       zeroCodec,
		Doc:         "evaluates condition, then, else eagerly and selects one of the last two",
	})

	must(&Descriptor{
		ID: IDAdd, Name: "ADD", Aliases: []string{"SUM"},
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n > 1 },
		Codec:       dynamicReducerCodec(),
		Doc:         "sums all parameters",
	})
	must(&Descriptor{
		ID: IDMul, Name: "MUL", Aliases: []string{"PRODUCT"},
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n > 1 },
		Codec:       dynamicReducerCodec(),
		Doc:         "multiplies all parameters",
	})
	must(&Descriptor{
		ID: IDHash, Name: "HASH",
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n > 0 },
		Codec:       dynamicReducerCodec(),
		Doc:         "hashes all parameters together",
	})
	must(&Descriptor{
		ID: IDAny, Name: "ANY",
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n > 1 },
		Codec:       dynamicReducerCodec(),
		Doc:         "the first non-zero parameter, or 0 if all are zero",
	})
	must(&Descriptor{
		ID: IDEnsure, Name: "ENSURE",
		InputArity: dynFn, OutputArity: constFn(0),
		ParamsValid: func(n int) bool { return n > 0 },
		Codec:       dynamicReducerCodec(),
		Doc:         "reverts unless every parameter is non-zero",
	})

	must(&Descriptor{
		ID: IDCall, Name: "CALL",
		InputArity:  func(operand uint16) int { return int(operand & 0x7) },
		OutputArity: func(operand uint16) int { return int((operand >> 3) & 0x3) },
		ParamsValid: func(n int) bool { return n >= 0 && n < 8 },
		Codec:       callCodec,
		Doc:         "calls another source with the given input/output arity",
	})
	must(&Descriptor{
		ID: IDContext, Name: "CONTEXT",
		InputArity: constFn(0), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 0 },
		Codec:       contextCodec,
		Doc:         "reads a value from the (column, row) context grid",
	})

	loopN := &Descriptor{
		ID: IDLoopN, Name: "LOOP_N",
		InputArity:  dynFn,
		ParamsValid: func(n int) bool { return n >= 0 },
		Codec:       loopNCodec,
		Doc:         "repeats a source n times over the supplied stack values",
	}
	loopN.OutputArityCtx = func(operand uint16, paramCount int) int { return paramCount }
	must(loopN)

	must(&Descriptor{
		ID: IDState, Name: "STATE",
		InputArity: constFn(0), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 0 },
		Codec:       stateCodec,
		Doc:         "reads a constant or stack value by (memory-kind, index)",
	})
	must(&Descriptor{
		ID: IDStorage, Name: "STORAGE",
		InputArity: constFn(0), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 0 },
		Codec:       storageCodec,
		Doc:         "reads a value from persistent storage by slot index",
	})

	doWhile := &Descriptor{
		ID: IDDoWhile, Name: "DO_WHILE",
		InputArity:  dynFn,
		ParamsValid: func(n int) bool { return n >= 2 },
		Codec:       doWhileCodec,
		Doc:         "repeats a source while its trailing condition output is non-zero",
	}
	doWhile.OutputArityCtx = func(operand uint16, paramCount int) int { return r.DoWhileOutputs(paramCount) }
	must(doWhile)

	must(&Descriptor{
		ID: IDScaleBy, Name: "SCALE_BY",
		InputArity: constFn(1), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 1 },
		Codec:       scaleByCodec,
		Doc:         "rescales a fixed-point value by 10^scale, scale signed in [-128,127]",
	})

	selectLte := &Descriptor{
		ID: IDSelectLte, Name: "SELECT_LTE",
		InputArity:  dynFn,
		OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n > 1 },
		Codec:       selectLteCodec,
		Doc:         "selects reports less-than-or-equal-to a reference block, by mode/logic",
	}
	must(selectLte)

	must(&Descriptor{
		ID: IDItierV2Report, Name: "ITIERV2_REPORT",
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 2 || n == 3 || n == 10 },
		Codec:       itierv2ReportCodec,
		Doc:         "fetches a tier report from an ITierV2 contract",
	})
	must(&Descriptor{
		ID: IDUpdateTimesForTierRange, Name: "UPDATE_TIMES_FOR_TIER_RANGE",
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n >= 0 },
		Codec:       updateTimesForTierRangeCodec,
		Doc:         "updates tier times for tiers in [startTier, endTier]",
	})
	must(&Descriptor{
		ID: IDIerc1155BalanceOfBatch, Name: "IERC1155_BALANCE_OF_BATCH",
		InputArity: dynFn, OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n > 2 && n%2 != 0 },
		Codec:       ierc1155BalanceOfBatchCodec,
		Doc:         "batches an ERC1155 balanceOfBatch call across (account, id) pairs",
	})

	must(&Descriptor{
		ID: IDIsaleV2Token, Name: "ISALEV2_TOKEN",
		InputArity: constFn(1), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 1 },
		Codec:       zeroCodec,
		Doc:         "the token address sold by an ISaleV2 contract",
	})
	must(&Descriptor{
		ID: IDIsaleV2TotalReserveReceived, Name: "ISALEV2_TOTAL_RESERVE_RECEIVED",
		InputArity: constFn(1), OutputArity: constFn(1),
		ParamsValid: func(n int) bool { return n == 1 },
		Codec:       zeroCodec,
		Doc:         "total reserve token received by an ISaleV2 contract",
	})

	return r
}
