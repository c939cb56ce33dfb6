package domain

import "time"

// StudyLane is a named category of queue candidates with its own eligibility
// filter, sort order, and budget policy.
type StudyLane string

const (
	LaneLearningIntraday StudyLane = "learning_intraday"
	LaneLearningInterday StudyLane = "learning_interday"
	LaneReview           StudyLane = "review"
	LaneNew              StudyLane = "new"
	LaneForgotten        StudyLane = "forgotten"
	LaneAhead            StudyLane = "ahead"
)

// StudyLanes lists every lane in admission priority order.
var StudyLanes = []StudyLane{
	LaneLearningIntraday,
	LaneLearningInterday,
	LaneForgotten,
	LaneReview,
	LaneAhead,
	LaneNew,
}

// CountsAgainstNewBudget reports whether admissions from the lane consume
// the daily new-card budget.
func (l StudyLane) CountsAgainstNewBudget() bool {
	return l == LaneNew
}

// CountsAgainstReviewBudget reports whether admissions from the lane consume
// the daily review budget. The forgotten and ahead custom lanes share it.
func (l StudyLane) CountsAgainstReviewBudget() bool {
	return l == LaneReview || l == LaneForgotten || l == LaneAhead
}

// QueueEntry is one admitted card in a composed study queue.
type QueueEntry struct {
	CardID string
	Lane   StudyLane
}

// ReviewLog records a single graded review event for a card.
type ReviewLog struct {
	CardID     string
	Rating     ReviewRating
	Lane       StudyLane
	ReviewedAt time.Time
}
