package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/events"
	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/ranking"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/storage"
)

// memDB is an in-memory stand-in for the Postgres schema shared by the fake repositories.
type memDB struct {
	mu         sync.Mutex
	nextID     int
	worldcups  map[int]*models.Worldcup
	candidates map[int]*models.CandidateStats
	tokens     map[string]time.Time
	results    map[string]models.MatchResult
	users      map[int]*models.User
	comments   map[int]*models.Comment

	failApply error
	failRead  error
}

func newMemDB() *memDB {
	return &memDB{
		worldcups:  map[int]*models.Worldcup{},
		candidates: map[int]*models.CandidateStats{},
		tokens:     map[string]time.Time{},
		results:    map[string]models.MatchResult{},
		users:      map[int]*models.User{},
		comments:   map[int]*models.Comment{},
	}
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

func (db *memDB) addWorldcup(authorID int) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.worldcups[id] = &models.Worldcup{ID: id, Title: fmt.Sprintf("wc%d", id), AuthorID: authorID, IsPublic: true}
	return id
}

func (db *memDB) addCandidates(worldcupID, n int) []int {
	db.mu.Lock()
	defer db.mu.Unlock()
	ids := make([]int, n)
	for i := range ids {
		id := db.id()
		db.candidates[id] = &models.CandidateStats{
			Candidate: models.Candidate{ID: id, WorldcupID: worldcupID, Name: fmt.Sprintf("cand%d", id), ImageKey: fmt.Sprintf("img%d.png", id)},
			Buckets:   map[models.Bucket]int{},
		}
		ids[i] = id
	}
	return ids
}

func (db *memDB) stats(id int) models.CandidateStats {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := *db.candidates[id]
	s.Buckets = maps.Clone(s.Buckets)
	return s
}

func (db *memDB) plays(worldcupID int) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.worldcups[worldcupID].TotalPlays
}

type memSnapshot struct {
	candidates map[int]models.CandidateStats
	tokens     map[string]time.Time
	results    map[string]models.MatchResult
	plays      map[int]int
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := memSnapshot{
		candidates: map[int]models.CandidateStats{},
		tokens:     maps.Clone(db.tokens),
		results:    maps.Clone(db.results),
		plays:      map[int]int{},
	}
	for id, c := range db.candidates {
		cp := *c
		cp.Buckets = maps.Clone(c.Buckets)
		snap.candidates[id] = cp
	}
	for id, w := range db.worldcups {
		snap.plays[id] = w.TotalPlays
	}
	return snap
}

func (db *memDB) restore(snap memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for id, c := range snap.candidates {
		cp := c
		if cur, ok := db.candidates[id]; ok {
			*cur = cp
		}
	}
	db.tokens = snap.tokens
	db.results = snap.results
	for id, p := range snap.plays {
		if w, ok := db.worldcups[id]; ok {
			w.TotalPlays = p
		}
	}
}

// fakeTx rolls the memDB back when fn fails.
type fakeTx struct{ db *memDB }

func (t fakeTx) InTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snap := t.db.snapshot()
	if err := fn(nil); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

type fakeWorldcupRepo struct{ db *memDB }

func (r fakeWorldcupRepo) Create(ctx context.Context, exec repositories.SQLExecutor, w *models.Worldcup) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[w.AuthorID]; !ok && len(r.db.users) > 0 {
		return repositories.ErrWorldcupAuthorInvalid
	}
	w.ID = r.db.id()
	cp := *w
	r.db.worldcups[w.ID] = &cp
	return nil
}

func (r fakeWorldcupRepo) GetByID(ctx context.Context, id int) (*models.Worldcup, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failRead != nil {
		return nil, r.db.failRead
	}
	w, ok := r.db.worldcups[id]
	if !ok {
		return nil, repositories.ErrWorldcupNotFound
	}
	cp := *w
	for _, c := range r.db.candidates {
		if c.WorldcupID == id {
			cp.CandidateCount++
		}
	}
	return &cp, nil
}

func (r fakeWorldcupRepo) List(ctx context.Context, filter repositories.ListWorldcupsFilter) ([]models.Worldcup, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Worldcup{}
	for _, w := range r.db.worldcups {
		if !w.IsPublic {
			continue
		}
		if filter.Keyword != "" && !slices.Contains(w.Keywords, filter.Keyword) {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeWorldcupRepo) ListByAuthor(ctx context.Context, authorID int) ([]models.Worldcup, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Worldcup{}
	for _, w := range r.db.worldcups {
		if w.AuthorID == authorID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r fakeWorldcupRepo) ListKeywords(ctx context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []string
	for _, w := range r.db.worldcups {
		out = append(out, w.Keywords...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (r fakeWorldcupRepo) IncrementPlays(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.worldcups[id]
	if !ok {
		return repositories.ErrWorldcupNotFound
	}
	w.TotalPlays++
	return nil
}

func (r fakeWorldcupRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.worldcups[id]; !ok {
		return repositories.ErrWorldcupNotFound
	}
	delete(r.db.worldcups, id)
	for cid, c := range r.db.candidates {
		if c.WorldcupID == id {
			delete(r.db.candidates, cid)
		}
	}
	return nil
}

type fakeCandidateRepo struct{ db *memDB }

func (r fakeCandidateRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, candidates []*models.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range candidates {
		if _, ok := r.db.worldcups[c.WorldcupID]; !ok {
			return repositories.ErrCandidateWorldcupGone
		}
		for _, existing := range r.db.candidates {
			if existing.ImageKey == c.ImageKey {
				return repositories.ErrCandidateKeyConflict
			}
		}
		c.ID = r.db.id()
		r.db.candidates[c.ID] = &models.CandidateStats{Candidate: *c, Buckets: map[models.Bucket]int{}}
	}
	return nil
}

func (r fakeCandidateRepo) GetByID(ctx context.Context, id int) (*models.Candidate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failRead != nil {
		return nil, r.db.failRead
	}
	c, ok := r.db.candidates[id]
	if !ok {
		return nil, repositories.ErrCandidateNotFound
	}
	cp := c.Candidate
	return &cp, nil
}

func (r fakeCandidateRepo) GetByKey(ctx context.Context, key string) (*models.Candidate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.candidates {
		if c.ImageKey == key {
			cp := c.Candidate
			return &cp, nil
		}
	}
	return nil, repositories.ErrCandidateNotFound
}

func (r fakeCandidateRepo) ListByWorldcup(ctx context.Context, worldcupID int) ([]models.Candidate, error) {
	stats, err := r.ListStatsByWorldcup(ctx, worldcupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Candidate, len(stats))
	for i, s := range stats {
		out[i] = s.Candidate
	}
	return out, nil
}

func (r fakeCandidateRepo) ListStatsByWorldcup(ctx context.Context, worldcupID int) ([]models.CandidateStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failRead != nil {
		return nil, r.db.failRead
	}
	out := []models.CandidateStats{}
	for _, c := range r.db.candidates {
		if c.WorldcupID == worldcupID {
			cp := *c
			cp.Buckets = maps.Clone(c.Buckets)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeCandidateRepo) GetStats(ctx context.Context, id int) (*models.CandidateStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.candidates[id]
	if !ok {
		return nil, repositories.ErrCandidateNotFound
	}
	cp := *c
	cp.Buckets = maps.Clone(c.Buckets)
	return &cp, nil
}

func (r fakeCandidateRepo) Update(ctx context.Context, exec repositories.SQLExecutor, candidate *models.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.candidates[candidate.ID]
	if !ok {
		return repositories.ErrCandidateNotFound
	}
	for id, other := range r.db.candidates {
		if id != candidate.ID && other.ImageKey == candidate.ImageKey {
			return repositories.ErrCandidateKeyConflict
		}
	}
	c.Name = candidate.Name
	c.ImageKey = candidate.ImageKey
	return nil
}

func (r fakeCandidateRepo) DeleteByKey(ctx context.Context, exec repositories.SQLExecutor, key string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, c := range r.db.candidates {
		if c.ImageKey == key {
			delete(r.db.candidates, id)
			return nil
		}
	}
	return repositories.ErrCandidateNotFound
}

func (r fakeCandidateRepo) ApplyIntents(ctx context.Context, exec repositories.SQLExecutor, intents []ranking.CounterIntent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failApply != nil {
		return r.db.failApply
	}
	for _, in := range intents {
		c, ok := r.db.candidates[in.CandidateID]
		if !ok {
			return repositories.ErrCandidateNotFound
		}
		switch in.Counter {
		case ranking.CounterShow:
			c.ShowCount += in.Delta
		case ranking.CounterWin:
			c.WinCount += in.Delta
		case ranking.CounterVictory:
			c.VictoryCount += in.Delta
		case ranking.CounterRuns:
			c.RunCount += in.Delta
		case ranking.CounterBucket:
			c.Buckets[in.Bucket] += in.Delta
		default:
			return repositories.ErrUnknownCounter
		}
	}
	return nil
}

func (r fakeCandidateRepo) ResetStats(ctx context.Context, exec repositories.SQLExecutor, worldcupID int) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, c := range r.db.candidates {
		if c.WorldcupID == worldcupID {
			c.ShowCount, c.WinCount, c.VictoryCount, c.RunCount = 0, 0, 0, 0
			c.Buckets = map[models.Bucket]int{}
			n++
		}
	}
	return n, nil
}

type fakeMatchRepo struct {
	db  *memDB
	now func() time.Time
}

func (r fakeMatchRepo) Record(ctx context.Context, exec repositories.SQLExecutor, result *models.MatchResult) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, used := r.db.tokens[result.Token]; used {
		return repositories.ErrMatchTokenUsed
	}
	created := time.Now()
	if r.now != nil {
		created = r.now()
	}
	r.db.tokens[result.Token] = created
	result.ID = len(r.db.tokens)
	result.CreatedAt = created
	r.db.results[result.Token] = *result
	return nil
}

func (r fakeMatchRepo) GetByToken(ctx context.Context, token string) (*models.MatchResult, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	result, ok := r.db.results[token]
	if !ok {
		return nil, repositories.ErrMatchResultNotFound
	}
	return &result, nil
}

func (r fakeMatchRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for token, at := range r.db.tokens {
		if at.Before(cutoff) {
			delete(r.db.tokens, token)
			delete(r.db.results, token)
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct{ db *memDB }

func (r fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	user.ID = r.db.id()
	cp := *user
	r.db.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeCommentRepo struct{ db *memDB }

func (r fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.worldcups[comment.WorldcupID]; !ok {
		return repositories.ErrCommentTarget
	}
	comment.ID = r.db.id()
	if u, ok := r.db.users[comment.UserID]; ok {
		comment.Nickname = u.Nickname
	}
	cp := *comment
	r.db.comments[comment.ID] = &cp
	return nil
}

func (r fakeCommentRepo) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.comments[id]
	if !ok {
		return nil, repositories.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeCommentRepo) ListByWorldcup(ctx context.Context, worldcupID, offset, limit int) ([]models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Comment{}
	for _, c := range r.db.comments {
		if c.WorldcupID == worldcupID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []models.Comment{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeCommentRepo) Delete(ctx context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.comments[id]; !ok {
		return repositories.ErrCommentNotFound
	}
	delete(r.db.comments, id)
	return nil
}

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeImages) PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (*storage.PresignedUpload, error) {
	return &storage.PresignedUpload{
		Key:         key,
		URL:         "https://upload.test/" + key + "?expires=" + expires.String(),
		ContentType: contentType,
		PublicURL:   f.GetPublicURL(key),
	}, nil
}

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImages) GetPublicURL(key string) string {
	return "https://img.test/" + key
}

func (f *fakeImages) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.deleted)
	slices.Sort(out)
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (n *fakeNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if msg, ok := message.(brackets.WebSocketMessage); ok {
		n.messages = append(n.messages, msg)
	}
}

func (n *fakeNotifier) count(msgType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.messages {
		if m.Type == msgType {
			c++
		}
	}
	return c
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.RunFinishedEvent
}

func (p *fakePublisher) PublishRunFinished(ctx context.Context, event events.RunFinishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) published() []events.RunFinishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

func keyHasExt(key, ext string) bool {
	return strings.HasSuffix(key, "."+ext)
}
