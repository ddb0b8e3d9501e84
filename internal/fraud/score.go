package fraud

const (
	scoreRateLimited = 50
	scoreBot         = 100
)

// Score computes the composite fraud score for a click. Exceeding the rate
// limit adds 50; a bot classification overrides everything else and pins the
// score at 100. The score is intentionally not additive across both signals.
func Score(isBot, withinLimit bool) int {
	score := 0
	if !withinLimit {
		score += scoreRateLimited
	}
	if isBot {
		score = scoreBot
	}
	return score
}
