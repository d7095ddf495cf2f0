package service

type Tier string

const (
	TierPerfect   Tier = "perfect"
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierEncourage Tier = "encourage"
)

// Message returns the feedback text shown with the final score.
func (t Tier) Message() string {
	switch t {
	case TierPerfect:
		return "Perfect score! You're a quiz master!"
	case TierExcellent:
		return "Excellent work! You really know your stuff."
	case TierGood:
		return "Good job! A solid performance."
	default:
		return "Nice try! Keep learning and try again."
	}
}

// ComputeResultMessage maps a final score to its tier. Thresholds are
// inclusive and compared in integer arithmetic, so 3/4 is excellent and 1/2
// is good.
func ComputeResultMessage(score, total int) Tier {
	if total <= 0 {
		return TierEncourage
	}
	switch {
	case score >= total:
		return TierPerfect
	case score*100 >= total*75:
		return TierExcellent
	case score*100 >= total*50:
		return TierGood
	default:
		return TierEncourage
	}
}
