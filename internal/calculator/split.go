// Package calculator computes price shares and booking statistics.
package calculator

import (
	"fmt"

	"github.com/mmynk/corepadel/internal/models"
)

// ShareCents splits total evenly among players, in cents. The remainder of an
// uneven split goes to the first share, which belongs to the owner.
func ShareCents(total int64, players int) ([]int64, error) {
	if players <= 0 {
		return nil, fmt.Errorf("must have at least one player")
	}
	if total < 0 {
		return nil, fmt.Errorf("total cannot be negative")
	}

	shares := make([]int64, players)
	each := total / int64(players)
	for i := range shares {
		shares[i] = each
	}
	shares[0] += total - each*int64(players)

	return shares, nil
}

// MatchShares splits a court price across a full match. The owner covers
// any remainder; every other player pays the even share.
func MatchShares(price int64) (owner, player int64) {
	shares, err := ShareCents(price, models.MaxParticipants)
	if err != nil {
		return 0, 0
	}
	return shares[0], shares[len(shares)-1]
}

// PlayerShareCents is the amount one invited player owes when the court price
// is split across a full match.
func PlayerShareCents(price int64) int64 {
	_, player := MatchShares(price)
	return player
}

// FormatEuros renders cents the way prices are labelled in the club, e.g. "6,00 €".
func FormatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}
