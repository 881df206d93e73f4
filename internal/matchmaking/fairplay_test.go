package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

func TestClassifyPool(t *testing.T) {
	tests := []struct {
		name    string
		history entities.FairPlayHistory
		want    entities.Pool
	}{
		{
			name: "clean history",
			history: entities.FairPlayHistory{
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
			},
			want: entities.PoolStandard,
		},
		{
			name:    "empty history",
			history: nil,
			want:    entities.PoolStandard,
		},
		{
			name: "single rage quit stays standard",
			history: entities.FairPlayHistory{
				entities.OutcomeRageQuit,
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
			},
			want: entities.PoolStandard,
		},
		{
			name: "two rage quits",
			history: entities.FairPlayHistory{
				entities.OutcomeRageQuit,
				entities.OutcomeCompleted,
				entities.OutcomeRageQuit,
			},
			want: entities.PoolRageQuitters,
		},
		{
			name: "two timeouts stays standard",
			history: entities.FairPlayHistory{
				entities.OutcomeTimeout,
				entities.OutcomeTimeout,
				entities.OutcomeCompleted,
			},
			want: entities.PoolStandard,
		},
		{
			name: "three timeouts",
			history: entities.FairPlayHistory{
				entities.OutcomeTimeout,
				entities.OutcomeCompleted,
				entities.OutcomeTimeout,
				entities.OutcomeTimeout,
			},
			want: entities.PoolTimeoutProne,
		},
		{
			name: "rage quits win over timeouts",
			history: entities.FairPlayHistory{
				entities.OutcomeRageQuit,
				entities.OutcomeTimeout,
				entities.OutcomeTimeout,
				entities.OutcomeTimeout,
				entities.OutcomeRageQuit,
			},
			want: entities.PoolRageQuitters,
		},
		{
			name: "old offenses outside the window do not count",
			history: entities.FairPlayHistory{
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
				entities.OutcomeCompleted,
				entities.OutcomeRageQuit,
				entities.OutcomeRageQuit,
			},
			want: entities.PoolStandard,
		},
		{
			name: "aborted games are not offenses",
			history: entities.FairPlayHistory{
				entities.OutcomeAborted,
				entities.OutcomeAborted,
				entities.OutcomeAborted,
			},
			want: entities.PoolStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPool(tt.history, 5))
		})
	}
}

func TestClassifyPool_DefaultWindow(t *testing.T) {
	history := entities.FairPlayHistory{
		entities.OutcomeRageQuit,
		entities.OutcomeRageQuit,
	}
	assert.Equal(t, entities.PoolRageQuitters, ClassifyPool(history, 0))
}
