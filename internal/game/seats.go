package game

import "math/rand/v2"

// SeatAssignment maps every player of a round to a seat number in 1..N
type SeatAssignment map[PlayerID]int

// AssignSeats numbers players 1..N in a fresh shuffle. It must be given
// its own draw so seat order says nothing about role order.
func AssignSeats(players []PlayerID, rng *rand.Rand) SeatAssignment {
	shuffled := shuffle(players, rng)
	seats := make(SeatAssignment, len(shuffled))
	for i, id := range shuffled {
		seats[id] = i + 1
	}
	return seats
}
