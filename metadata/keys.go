package metadata

// Keys written by the table builder and by column analysis.
const (
	KeyName  = "Name"
	KeyIndex = "Index"

	KeyIsNumeric = "IsNumeric"
	KeyMin       = "Min"
	KeyMax       = "Max"
	KeyMean      = "Mean"
	KeyStdDev    = "StdDev"
	KeyL1Norm    = "L1Norm"
	KeyL2Norm    = "L2Norm"
	KeyDistinct  = "NumDistinct"
	KeyMaxLength = "MaxLength"
	KeyNullCount = "NullCount"

	// Written by normalization: x' = (x - Subtract) / Divide.
	KeyNormalization     = "Normalization"
	KeyNormalizeSubtract = "NormalizeSubtract"
	KeyNormalizeDivide   = "NormalizeDivide"
)
