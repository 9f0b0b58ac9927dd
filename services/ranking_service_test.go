package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/worldcup/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRanking(t *testing.T) (*memDB, int, []int) {
	t.Helper()
	db := newMemDB()
	wcID := db.addWorldcup(1)
	ids := db.addCandidates(wcID, 5)
	repo := fakeCandidateRepo{db: db}

	// victory ratios: ids[0]=0.5, ids[1]=1, ids[2]=0, ids[3] undefined, ids[4]=0.25
	apply := func(id int, counter ranking.Counter, n int) {
		require.NoError(t, repo.ApplyIntents(context.Background(), nil, []ranking.CounterIntent{{CandidateID: id, Counter: counter, Delta: n}}))
	}
	apply(ids[0], ranking.CounterRuns, 2)
	apply(ids[0], ranking.CounterVictory, 1)
	apply(ids[1], ranking.CounterRuns, 1)
	apply(ids[1], ranking.CounterVictory, 1)
	apply(ids[2], ranking.CounterRuns, 3)
	apply(ids[4], ranking.CounterRuns, 4)
	apply(ids[4], ranking.CounterVictory, 1)
	return db, wcID, ids
}

func TestRankingServiceRank(t *testing.T) {
	db, wcID, ids := seedRanking(t)
	svc := NewRankingService(fakeWorldcupRepo{db: db}, fakeCandidateRepo{db: db}, &fakeImages{})

	page, err := svc.Rank(context.Background(), wcID, RankingQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Pages)

	got := make([]int, len(page.Items))
	for i, it := range page.Items {
		got[i] = it.CandidateID
	}
	assert.Equal(t, []int{ids[1], ids[0], ids[4], ids[2], ids[3]}, got)
	require.NotNil(t, page.Items[0].ImageURL)

	page, err = svc.Rank(context.Background(), wcID, RankingQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].CandidateID)
}

func TestRankingServiceRankErrors(t *testing.T) {
	db, wcID, _ := seedRanking(t)
	svc := NewRankingService(fakeWorldcupRepo{db: db}, fakeCandidateRepo{db: db}, nil)

	_, err := svc.Rank(context.Background(), wcID, RankingQuery{Page: -1})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Rank(context.Background(), 999, RankingQuery{})
	assert.ErrorIs(t, err, ErrWorldcupNotFound)

	db.failRead = errors.New("pool exhausted")
	_, err = svc.Rank(context.Background(), wcID, RankingQuery{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRankingServiceLimitIsCapped(t *testing.T) {
	db, wcID, _ := seedRanking(t)
	svc := NewRankingService(fakeWorldcupRepo{db: db}, fakeCandidateRepo{db: db}, nil)

	page, err := svc.Rank(context.Background(), wcID, RankingQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxRankingPageSize, page.Limit)
}

func TestRankingServiceDetail(t *testing.T) {
	db, _, ids := seedRanking(t)
	svc := NewRankingService(fakeWorldcupRepo{db: db}, fakeCandidateRepo{db: db}, &fakeImages{})

	detail, err := svc.Detail(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, 2, detail.RunCount)
	assert.Equal(t, 1, detail.VictoryCount)
	assert.InDelta(t, 0.5, float64(detail.VictoryRatio), 1e-9)
	assert.False(t, detail.WinRatio.Defined())
	assert.Equal(t, ids[0], detail.Breakdown.CandidateID)

	_, err = svc.Detail(context.Background(), 999)
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}
