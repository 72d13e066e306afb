package bound

import "iterlower/internal/symbols"

// Method pairs a method symbol with its body. Symbols cannot refer to
// bound trees, so bodies travel beside them in this side table.
type Method struct {
	Symbol *symbols.Method
	Body   *Block
}

// NewMethod creates a method body entry
func NewMethod(symbol *symbols.Method, body *Block) *Method {
	return &Method{Symbol: symbol, Body: body}
}
