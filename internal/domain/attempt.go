package domain

// QuestionTally holds counter increments for one question.
type QuestionTally struct {
	Attempts       int   `json:"attempts"`
	Correct        int   `json:"correct"`
	Incorrect      int   `json:"incorrect"`
	OptionAttempts []int `json:"optionAttempts"`
}

// Tally is the set of counter increments produced by one submission,
// positionally aligned with the quiz it was computed from.
type Tally struct {
	Questions []QuestionTally `json:"questions"`
	Score     int             `json:"score"`
}

func newTally(quiz Quiz) Tally {
	t := Tally{Questions: make([]QuestionTally, len(quiz.Questions))}
	for i, q := range quiz.Questions {
		t.Questions[i].OptionAttempts = make([]int, len(q.Options))
	}
	return t
}

// Empty reports whether applying the tally would change nothing.
func (t Tally) Empty() bool {
	for _, q := range t.Questions {
		if q.Attempts != 0 || q.Correct != 0 || q.Incorrect != 0 {
			return false
		}
		for _, n := range q.OptionAttempts {
			if n != 0 {
				return false
			}
		}
	}
	return true
}

// Apply adds the increments to quiz in place. Positions the quiz no longer has are ignored.
func (t Tally) Apply(quiz *Quiz) {
	for i, qt := range t.Questions {
		if i >= len(quiz.Questions) {
			return
		}
		q := &quiz.Questions[i]
		q.TotalAttempts += qt.Attempts
		q.TotalCorrectAttempts += qt.Correct
		q.TotalIncorrectAttempts += qt.Incorrect
		for j, n := range qt.OptionAttempts {
			if j < len(q.Options) {
				q.Options[j].TotalAttempts += n
			}
		}
	}
}

// TallyQNA scores answers against quiz. answers[i] is the chosen option index for
// question i, or nil when skipped. Extra answers are ignored. A present answer
// always counts as an attempt; it is scored only when the question has a correct option.
func TallyQNA(quiz Quiz, answers []*int) Tally {
	t := newTally(quiz)
	for i, q := range quiz.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		chosen := *answers[i]
		qt := &t.Questions[i]
		qt.Attempts++
		correct := q.CorrectIndex()
		if correct == -1 {
			continue
		}
		if chosen == correct {
			qt.Correct++
			t.Score++
		} else {
			qt.Incorrect++
		}
	}
	return t
}

// TallyPoll counts votes. Positions past the last question, nil entries and
// option indices out of range are skipped.
func TallyPoll(quiz Quiz, answers []*int) Tally {
	t := newTally(quiz)
	for i, answer := range answers {
		if i >= len(quiz.Questions) || answer == nil {
			continue
		}
		chosen := *answer
		if chosen < 0 || chosen >= len(quiz.Questions[i].Options) {
			continue
		}
		t.Questions[i].OptionAttempts[chosen]++
	}
	return t
}
