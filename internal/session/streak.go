package session

import "github.com/conorfennell/studydeck/internal/domain"

// EasyStreak tracks consecutive "easy" grades within a session.
type EasyStreak struct {
	Current   int
	Best      int
	TotalEasy int
}

// AdvanceStreak folds one grade into the streak: easy extends it, anything
// else resets the current run while keeping best and total.
func AdvanceStreak(streak EasyStreak, rating domain.ReviewRating) EasyStreak {
	if rating == domain.RatingEasy {
		streak.Current++
		if streak.Current > streak.Best {
			streak.Best = streak.Current
		}
		streak.TotalEasy++
		return streak
	}
	streak.Current = 0
	return streak
}
