package tokens

// Budget divides a total token allowance between the sections of an
// assembled context. Shares are fractions of the total and sum to 1.
type Budget struct {
	Total        int
	Messages     int
	BookChunks   int
	Summary      int
	Participants int
	Metadata     int
}

// DiscussionBudget allocates for a moderator turn:
// messages 40%, book chunks 35%, summary 15%, participants 5%, metadata 5%.
func DiscussionBudget(total int) Budget {
	return Budget{
		Total:        total,
		Messages:     share(total, 0.40),
		BookChunks:   share(total, 0.35),
		Summary:      share(total, 0.15),
		Participants: share(total, 0.05),
		Metadata:     share(total, 0.05),
	}
}

// QuizBudget flips the allocation toward source material:
// book chunks 70%, messages 20%, summary 5%, metadata 5%.
func QuizBudget(total int) Budget {
	return Budget{
		Total:      total,
		BookChunks: share(total, 0.70),
		Messages:   share(total, 0.20),
		Summary:    share(total, 0.05),
		Metadata:   share(total, 0.05),
	}
}

func share(total int, fraction float64) int {
	n := int(float64(total) * fraction)
	if n < 0 {
		return 0
	}
	return n
}
