package compiler

import "github.com/mna/mint/lang/token"

// precedence orders binding power from loosest to tightest, lowest to
// highest as in the spec's precedence table.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * / %
	precUnary                 // - !
	precCall                  // ( .
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          precedence
}

var rules = [...]parseRule{
	token.OpenParen: {(*Compiler).grouping, (*Compiler).call, precCall},
	token.Minus:     {(*Compiler).unary, (*Compiler).binary, precTerm},
	token.Plus:      {nil, (*Compiler).binary, precTerm},
	token.Divide:    {nil, (*Compiler).binary, precFactor},
	token.Multiply:  {nil, (*Compiler).binary, precFactor},
	token.Modulo:    {nil, (*Compiler).binary, precFactor},
	token.Not:       {(*Compiler).unary, nil, precNone},

	token.NotEqual:         {nil, (*Compiler).binary, precEquality},
	token.IsEqual:          {nil, (*Compiler).binary, precEquality},
	token.GreaterThan:      {nil, (*Compiler).binary, precComparison},
	token.GreaterThanEqual: {nil, (*Compiler).binary, precComparison},
	token.LessThan:         {nil, (*Compiler).binary, precComparison},
	token.LessThanEqual:    {nil, (*Compiler).binary, precComparison},

	token.Identifier: {(*Compiler).variable, nil, precNone},
	token.String:     {(*Compiler).string, nil, precNone},
	token.Number:     {(*Compiler).number, nil, precNone},
	token.True:       {(*Compiler).literal, nil, precNone},
	token.False:      {(*Compiler).literal, nil, precNone},

	token.And: {nil, (*Compiler).and, precAnd},
	token.Or:  {nil, (*Compiler).or, precOr},
}

// ruleTable is rules, read through a variable set in init so that the parse
// functions referenced by rules do not form an initialization cycle with it.
var ruleTable []parseRule

func init() { ruleTable = rules[:] }

func ruleFor(k token.Kind) parseRule {
	if int(k) < len(ruleTable) {
		return ruleTable[k]
	}
	return parseRule{}
}
