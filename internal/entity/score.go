package entity

type ScoreRow struct {
	UserID ID   `json:"user_id"`
	Symbol Mark `json:"symbol"`
	Score  int  `json:"score"`
}

// ScoreTally is always rebuilt from the server scoreboard, never incremented locally.
type ScoreTally map[Mark]int

// NewScoreTally maps scoreboard rows to a tally. Marks without a row count 0; a later row for the same mark wins.
func NewScoreTally(rows []ScoreRow) ScoreTally {
	tally := ScoreTally{MarkX: 0, MarkO: 0}

	for _, row := range rows {
		if row.Symbol.Valid() {
			tally[row.Symbol] = row.Score
		}
	}

	return tally
}

func (that ScoreTally) Clone() ScoreTally {
	clone := make(ScoreTally, len(that))
	for mark, score := range that {
		clone[mark] = score
	}

	return clone
}
