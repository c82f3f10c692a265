// Package split computes the integer payment splits used by cancellation
// and resale.  Every function is pure; amounts are unsigned 64-bit values in
// the smallest currency unit and results are floored.
package split

import (
	"errors"
	"math/bits"
)

// MaxPercentage is the largest accepted percentage.
const MaxPercentage = 100

// ErrOverflow is returned when amount*pct does not fit in 64 bits.
var ErrOverflow = errors.New("split: arithmetic overflow")

// ErrPercentage is returned for a percentage above MaxPercentage.
var ErrPercentage = errors.New("split: percentage above 100")

// Share returns floor(amount*pct/100).  The product is computed in 128 bits
// and rejected when its high word is non-zero.
func Share(amount, pct uint64) (uint64, error) {
	if pct > MaxPercentage {
		return 0, ErrPercentage
	}
	hi, lo := bits.Mul64(amount, pct)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo / MaxPercentage, nil
}

// Penalty is the part of a ticket price kept by the organizer on cancellation.
func Penalty(price, pct uint64) (uint64, error) { return Share(price, pct) }

// Refund is the part of a ticket price returned to the owner on cancellation.
func Refund(price, pct uint64) (uint64, error) {
	p, err := Penalty(price, pct)
	if err != nil {
		return 0, err
	}
	return price - p, nil
}

// Royalty is the part of a resale price paid to the organizer.
func Royalty(resale, pct uint64) (uint64, error) { return Share(resale, pct) }

// SellerTake is the part of a resale price paid to the seller.
func SellerTake(resale, pct uint64) (uint64, error) {
	r, err := Royalty(resale, pct)
	if err != nil {
		return 0, err
	}
	return resale - r, nil
}

// Parts is a two-way split of one amount.  Kept + Passed always equals the
// amount that was split.
type Parts struct {
	Kept   uint64 // penalty or royalty, paid to the organizer
	Passed uint64 // refund or seller take, paid to the ticket holder
}

// Cancellation splits a ticket price into penalty and refund.
func Cancellation(price, pct uint64) (Parts, error) {
	p, err := Penalty(price, pct)
	if err != nil {
		return Parts{}, err
	}
	return Parts{Kept: p, Passed: price - p}, nil
}

// Resale splits a resale price into royalty and seller take.
func Resale(resale, pct uint64) (Parts, error) {
	r, err := Royalty(resale, pct)
	if err != nil {
		return Parts{}, err
	}
	return Parts{Kept: r, Passed: resale - r}, nil
}
