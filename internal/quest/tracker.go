package quest

import "sync"

// Tracker holds at most one in-progress quest per user. Each run remembers
// the session that started it. State lives in memory only and is lost on
// restart.
type Tracker struct {
	mu     sync.Mutex
	active map[int64]*Progress
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{active: make(map[int64]*Progress)}
}

// Start begins questID for userID from sessionID, discarding any run
// already in progress
func (t *Tracker) Start(userID int64, sessionID string, questID int64) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := NewProgress(questID)
	p.session = sessionID
	t.active[userID] = p
	return *p
}

// Advance moves the user's run on questID forward by one step. When the
// step completes the quest the run is removed, so the completion is
// reported exactly once.
func (t *Tracker) Advance(userID, questID int64, in StepInput) (Progress, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.active[userID]
	if !ok {
		return Progress{}, false, ErrNoActiveQuest
	}
	if p.QuestID != questID {
		return Progress{}, false, ErrQuestMismatch
	}

	completed, err := p.Advance(in)
	if err != nil {
		return *p, false, err
	}
	if completed {
		delete(t.active, userID)
	}
	return *p, completed, nil
}

// Restore puts a run back after its completion could not be recorded
func (t *Tracker) Restore(userID int64, p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.active[userID]; ok {
		return
	}
	p.Completed = false
	p.Step = StepCount - 1
	p.Feedback = nil
	p.refresh()
	t.active[userID] = &p
}

// Abandon drops the user's run on questID
func (t *Tracker) Abandon(userID, questID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.active[userID]
	if !ok {
		return ErrNoActiveQuest
	}
	if p.QuestID != questID {
		return ErrQuestMismatch
	}
	delete(t.active, userID)
	return nil
}

// Clear drops the user's run if sessionID started it. Runs begun on other
// sessions survive.
func (t *Tracker) Clear(userID int64, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.active[userID]; ok && p.session == sessionID {
		delete(t.active, userID)
	}
}

// Active returns the user's in-progress run, if any
func (t *Tracker) Active(userID int64) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.active[userID]
	if !ok {
		return Progress{}, false
	}
	return *p, true
}
