package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCandidateTestService(db *memDB, images *fakeImages) CandidateService {
	return NewCandidateService(fakeTx{db: db}, fakeWorldcupRepo{db: db}, fakeCandidateRepo{db: db}, images, nil)
}

func TestCandidateAdd(t *testing.T) {
	db := newMemDB()
	wcID := db.addWorldcup(1)
	svc := newCandidateTestService(db, &fakeImages{})
	ctx := context.Background()

	added, err := svc.Add(ctx, 1, AddCandidatesInput{WorldcupID: wcID, Candidates: []CandidateInput{{Name: " Rex ", Key: "rex.png"}}})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "Rex", added[0].Name)
	require.NotNil(t, added[0].ImageURL)

	_, err = svc.Add(ctx, 2, AddCandidatesInput{WorldcupID: wcID, Candidates: []CandidateInput{{Name: "a", Key: "a.png"}}})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.Add(ctx, 1, AddCandidatesInput{WorldcupID: wcID})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Add(ctx, 1, AddCandidatesInput{WorldcupID: wcID, Candidates: []CandidateInput{{Name: "dup", Key: "rex.png"}}})
	assert.ErrorIs(t, err, ErrCandidateKeyConflict)

	_, err = svc.Add(ctx, 1, AddCandidatesInput{WorldcupID: 999, Candidates: []CandidateInput{{Name: "a", Key: "b.png"}}})
	assert.ErrorIs(t, err, ErrWorldcupNotFound)
}

func TestCandidateUpdateReplacesImage(t *testing.T) {
	db := newMemDB()
	wcID := db.addWorldcup(1)
	id := db.addCandidates(wcID, 1)[0]
	oldKey := db.stats(id).ImageKey
	images := &fakeImages{}
	svc := newCandidateTestService(db, images)
	ctx := context.Background()

	name, key := "Renamed", "new.webp"
	updated, err := svc.Update(ctx, 1, oldKey, UpdateCandidateInput{Name: &name, Key: &key})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "new.webp", updated.ImageKey)
	assert.Equal(t, []string{oldKey}, images.deletedKeys())

	onlyName := "Again"
	_, err = svc.Update(ctx, 1, "new.webp", UpdateCandidateInput{Name: &onlyName})
	require.NoError(t, err)
	assert.Len(t, images.deletedKeys(), 1, "same key keeps the image")

	_, err = svc.Update(ctx, 1, "new.webp", UpdateCandidateInput{})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Update(ctx, 2, "new.webp", UpdateCandidateInput{Name: &onlyName})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.Update(ctx, 1, "missing.png", UpdateCandidateInput{Name: &onlyName})
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestCandidateDelete(t *testing.T) {
	db := newMemDB()
	wcID := db.addWorldcup(1)
	id := db.addCandidates(wcID, 1)[0]
	key := db.stats(id).ImageKey
	images := &fakeImages{}
	svc := newCandidateTestService(db, images)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, 2, key), ErrForbiddenOperation)
	require.NoError(t, svc.Delete(ctx, 1, key))
	assert.Equal(t, []string{key}, images.deletedKeys())
	assert.ErrorIs(t, svc.Delete(ctx, 1, key), ErrCandidateNotFound)
}
