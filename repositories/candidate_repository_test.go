package repositories

import (
	"strings"
	"testing"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterColumn(t *testing.T) {
	tests := []struct {
		name   string
		intent ranking.CounterIntent
		want   string
	}{
		{"show", ranking.CounterIntent{Counter: ranking.CounterShow}, "show_cnt"},
		{"win", ranking.CounterIntent{Counter: ranking.CounterWin}, "win_cnt"},
		{"victory", ranking.CounterIntent{Counter: ranking.CounterVictory}, "victory_cnt"},
		{"runs", ranking.CounterIntent{Counter: ranking.CounterRuns}, "runs_cnt"},
		{"bucket", ranking.CounterIntent{Counter: ranking.CounterBucket, Bucket: models.BucketThirties}, "thirties"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := counterColumn(tt.intent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, col)
		})
	}
}

func TestCounterColumnRejectsUnknown(t *testing.T) {
	_, err := counterColumn(ranking.CounterIntent{Counter: "show_cnt; DROP TABLE candidates"})
	assert.ErrorIs(t, err, ErrUnknownCounter)

	_, err = counterColumn(ranking.CounterIntent{Counter: ranking.CounterBucket, Bucket: "id"})
	assert.ErrorIs(t, err, ErrUnknownCounter)
}

func TestStatsColumnsListsEveryBucket(t *testing.T) {
	cols := statsColumns()
	assert.True(t, strings.HasPrefix(cols, candidateColumns))
	for _, b := range models.Buckets {
		assert.Contains(t, cols, string(b))
	}
}
