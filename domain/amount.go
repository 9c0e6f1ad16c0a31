package domain

import (
	"fmt"
	"math/big"
)

// CurrencyAmount is an exact rational amount of a token.
// All internal math is exact; truncation to an integer raw amount happens
// only at on-chain boundaries and display.
type CurrencyAmount struct {
	Token Token

	numerator   *big.Int
	denominator *big.Int
}

// NewCurrencyAmount returns an amount of token from a raw integer quantity
// denominated in the token's smallest unit.
func NewCurrencyAmount(token Token, raw *big.Int) CurrencyAmount {
	return CurrencyAmount{
		Token:       token,
		numerator:   new(big.Int).Set(raw),
		denominator: big.NewInt(1),
	}
}

// NewCurrencyAmountFromFraction returns an amount from an exact fraction.
func NewCurrencyAmountFromFraction(token Token, numerator, denominator *big.Int) CurrencyAmount {
	if denominator.Sign() == 0 {
		panic("currency amount with zero denominator")
	}
	return CurrencyAmount{
		Token:       token,
		numerator:   new(big.Int).Set(numerator),
		denominator: new(big.Int).Set(denominator),
	}
}

// Quotient returns the integer part of the amount in the token's smallest unit.
func (a CurrencyAmount) Quotient() *big.Int {
	return new(big.Int).Quo(a.numerator, a.denominator)
}

// Fraction returns copies of the numerator and denominator.
func (a CurrencyAmount) Fraction() (*big.Int, *big.Int) {
	return new(big.Int).Set(a.numerator), new(big.Int).Set(a.denominator)
}

// MulPercent returns the amount scaled by percent/100, exactly.
func (a CurrencyAmount) MulPercent(percent int) CurrencyAmount {
	return CurrencyAmount{
		Token:       a.Token,
		numerator:   new(big.Int).Mul(a.numerator, big.NewInt(int64(percent))),
		denominator: new(big.Int).Mul(a.denominator, big.NewInt(100)),
	}
}

// Add returns the exact sum of the two amounts.
// Panics if the tokens differ since adding distinct assets is a programming error.
func (a CurrencyAmount) Add(other CurrencyAmount) CurrencyAmount {
	if !a.Token.Equal(other.Token) {
		panic(fmt.Sprintf("cannot add amounts of %s and %s", a.Token, other.Token))
	}

	// a/b + c/d = (ad + cb) / bd
	num := new(big.Int).Mul(a.numerator, other.denominator)
	num.Add(num, new(big.Int).Mul(other.numerator, a.denominator))
	den := new(big.Int).Mul(a.denominator, other.denominator)

	return CurrencyAmount{Token: a.Token, numerator: num, denominator: den}
}

// Sub returns the exact difference of the two amounts.
func (a CurrencyAmount) Sub(other CurrencyAmount) CurrencyAmount {
	neg := CurrencyAmount{
		Token:       other.Token,
		numerator:   new(big.Int).Neg(other.numerator),
		denominator: other.denominator,
	}
	return a.Add(neg)
}

// Cmp compares two amounts exactly via cross multiplication.
// Returns -1, 0, or 1.
func (a CurrencyAmount) Cmp(other CurrencyAmount) int {
	left := new(big.Int).Mul(a.numerator, other.denominator)
	right := new(big.Int).Mul(other.numerator, a.denominator)
	// Denominators are kept positive by construction.
	return left.Cmp(right)
}

// Sign returns the sign of the amount.
func (a CurrencyAmount) Sign() int {
	return a.numerator.Sign()
}

// IsZero returns true if the amount is exactly zero.
func (a CurrencyAmount) IsZero() bool {
	return a.numerator.Sign() == 0
}

// String implements fmt.Stringer. Truncates to the raw integer amount.
func (a CurrencyAmount) String() string {
	return fmt.Sprintf("%s %s", a.Quotient().String(), a.Token)
}

// ZeroAmount returns the zero amount of the given token.
func ZeroAmount(token Token) CurrencyAmount {
	return NewCurrencyAmount(token, big.NewInt(0))
}
