package ir

// CompareKind names the comparison OpCompareIntBranch/OpCompareFloatBranch
// perform between their first two operands; the third operand is an
// IntConst carrying the CompareKind value. The taken target is the
// owning block's first successor, the fallthrough target its second,
// per Graph.ComputeEdges' predecessor/successor convention.
type CompareKind int64

const (
	CompareEQ CompareKind = iota
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
	CompareULT
	CompareULE
	CompareUGT
	CompareUGE
)
