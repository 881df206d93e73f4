package matchmaking

import "github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"

// ClassifyPool maps a user's recent outcomes (newest first) to a
// fair-play pool over a window of the last `window` duels:
// two or more rage quits puts the user in rage_quitters, otherwise
// three or more timeouts puts them in timeout_prone.
func ClassifyPool(history entities.FairPlayHistory, window int) entities.Pool {
	if window <= 0 {
		window = DefaultConfig().FairPlayWindow
	}
	if len(history) > window {
		history = history[:window]
	}

	var rageQuits, timeouts int
	for _, outcome := range history {
		switch outcome {
		case entities.OutcomeRageQuit:
			rageQuits++
		case entities.OutcomeTimeout:
			timeouts++
		}
	}

	if rageQuits >= 2 {
		return entities.PoolRageQuitters
	}
	if timeouts >= 3 {
		return entities.PoolTimeoutProne
	}
	return entities.PoolStandard
}
