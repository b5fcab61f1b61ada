package dialogue

// Schedule walks a fixed, ordered question list exactly once. It never looks
// at the answers: progress depends only on how many questions have been
// drawn, so a question is consumed even when the reply that carried it was
// lost in transit.
type Schedule struct {
	questions []string
	next      int
}

// NewSchedule returns a schedule over the given questions, none asked yet.
func NewSchedule(questions []string) *Schedule {
	return &Schedule{questions: questions}
}

// Next returns the next unasked question and advances. The second result is
// false once every question has been drawn.
func (s *Schedule) Next() (string, bool) {
	if s.next >= len(s.questions) {
		return "", false
	}
	q := s.questions[s.next]
	s.next++
	return q, true
}

// Asked reports how many questions have been drawn so far.
func (s *Schedule) Asked() int {
	return s.next
}

// Len reports the total number of questions in the plan.
func (s *Schedule) Len() int {
	return len(s.questions)
}

// Exhausted reports whether every question has been drawn.
func (s *Schedule) Exhausted() bool {
	return s.next >= len(s.questions)
}

// Reset rewinds the schedule to the beginning.
func (s *Schedule) Reset() {
	s.next = 0
}
