package handlers

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// Startup step names
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepContent    = "Seeding content"
	StepBadWords   = "Loading word filter"
	StepServices   = "Initializing services"
	StepReady      = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

var startupStatus = newStartupStatus()

func newStartupStatus() *StartupStatus {
	names := []string{StepDatabase, StepMigrations, StepContent, StepBadWords, StepServices, StepReady}
	steps := make([]StartupStep, len(names))
	for i, name := range names {
		steps[i] = StartupStep{Name: name}
	}
	return &StartupStatus{Current: "Initializing...", Steps: steps}
}

// SetCurrentStep updates the current initialization step
func SetCurrentStep(step string) {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	startupStatus.Current = step
}

// CompleteStep marks a step as completed and updates progress
func CompleteStep(stepName string) {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()

	for i := range startupStatus.Steps {
		if startupStatus.Steps[i].Name == stepName {
			startupStatus.Steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range startupStatus.Steps {
		if step.Completed {
			completed++
		}
	}
	startupStatus.Progress = (completed * 100) / len(startupStatus.Steps)
}

// MarkReady marks the server as fully initialized
func MarkReady() {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	for i := range startupStatus.Steps {
		startupStatus.Steps[i].Completed = true
	}
	startupStatus.Ready = true
	startupStatus.Current = StepReady
	startupStatus.Progress = 100
}

// IsReady returns whether the server is fully initialized
func IsReady() bool {
	startupStatus.mu.RLock()
	defer startupStatus.mu.RUnlock()
	return startupStatus.Ready
}

// ShowStartupStatus reports the initialization progress
func ShowStartupStatus(w http.ResponseWriter, r *http.Request) {
	startupStatus.mu.RLock()
	snapshot := struct {
		Ready    bool          `json:"ready"`
		Current  string        `json:"current"`
		Progress int           `json:"progress"`
		Steps    []StartupStep `json:"steps"`
	}{
		Ready:    startupStatus.Ready,
		Current:  startupStatus.Current,
		Progress: startupStatus.Progress,
		Steps:    append([]StartupStep(nil), startupStatus.Steps...),
	}
	startupStatus.mu.RUnlock()

	respondJSON(w, http.StatusOK, snapshot)
}

// Healthz reports liveness
func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartupGate answers the status and health endpoints while the server
// initializes and hands every request to the app handler once it is set
type StartupGate struct {
	app atomic.Pointer[http.Handler]
}

// SetHandler installs the fully initialized app handler
func (g *StartupGate) SetHandler(h http.Handler) {
	g.app.Store(&h)
}

func (g *StartupGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if app := g.app.Load(); app != nil {
		(*app).ServeHTTP(w, r)
		return
	}

	switch r.URL.Path {
	case "/healthz":
		Healthz(w, r)
	case "/api/status":
		ShowStartupStatus(w, r)
	default:
		w.Header().Set("Retry-After", "2")
		respondWithError(w, http.StatusServiceUnavailable, "Server is starting up", "", nil)
	}
}
