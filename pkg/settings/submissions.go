package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Submission bookkeeping file names inside the settings folder.
const (
	SubmissionListFile    = "SubmissionList.json"
	SubmissionHistoryFile = "SubmissionHistory.json"

	createdTimeLayout = "2006-01-02 15:04:05"
)

// Submission records one built simulation package and its run state.
// Field names on disk match the server portal's expectations.
type Submission struct {
	Completed    bool   `json:"Completed"`
	Settings     string `json:"Settings"`
	Trajectory   string `json:"Trajectory"`
	Created      string `json:"Created"`
	Submitted    bool   `json:"Submitted"`
	NumberOfRuns int    `json:"Number Of Runs"`
}

// SubmissionList tracks every simulation package built in this
// workspace, keyed by simulation name.
type SubmissionList struct {
	Submissions map[string]*Submission `json:"Submissions"`
}

// History is the append-only record of finished submissions.
type History struct {
	History []*Submission `json:"History"`
}

// NewSimulationName returns a fresh unique simulation name.
func NewSimulationName() string {
	return uuid.New().String()
}

// EnsureWorkspace creates the bookkeeping files inside the settings
// folder when they do not exist yet.
func EnsureWorkspace(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating settings folder: %w", err)
	}
	listPath := filepath.Join(dir, SubmissionListFile)
	if _, err := os.Stat(listPath); os.IsNotExist(err) {
		empty := SubmissionList{Submissions: map[string]*Submission{}}
		if err := writeJSON(listPath, &empty); err != nil {
			return err
		}
	}
	historyPath := filepath.Join(dir, SubmissionHistoryFile)
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		if err := writeJSON(historyPath, &History{History: []*Submission{}}); err != nil {
			return err
		}
	}
	return nil
}

// LoadSubmissionList reads the submission list from the settings
// folder.
func LoadSubmissionList(dir string) (*SubmissionList, error) {
	var list SubmissionList
	if err := readJSON(filepath.Join(dir, SubmissionListFile), &list); err != nil {
		return nil, err
	}
	if list.Submissions == nil {
		list.Submissions = map[string]*Submission{}
	}
	return &list, nil
}

// Save writes the submission list back to the settings folder.
func (l *SubmissionList) Save(dir string) error {
	return writeJSON(filepath.Join(dir, SubmissionListFile), l)
}

// Record registers a built simulation package under its name. A name
// seen before keeps its entry and counts another run.
func (l *SubmissionList) Record(simName, settings, trajectory string) *Submission {
	if sub, ok := l.Submissions[simName]; ok {
		sub.Settings = settings
		sub.Trajectory = trajectory
		sub.NumberOfRuns++
		return sub
	}
	sub := &Submission{
		Settings:     settings,
		Trajectory:   trajectory,
		Created:      time.Now().Format(createdTimeLayout),
		Submitted:    true,
		NumberOfRuns: 1,
	}
	l.Submissions[simName] = sub
	return sub
}

// Package returns the stored settings and trajectory for a simulation
// name.
func (l *SubmissionList) Package(simName string) (settings, trajectory string, err error) {
	sub, ok := l.Submissions[simName]
	if !ok {
		return "", "", fmt.Errorf("%s is not in the submission list", simName)
	}
	return sub.Settings, sub.Trajectory, nil
}

// LoadHistory reads the submission history from the settings folder.
func LoadHistory(dir string) (*History, error) {
	var history History
	if err := readJSON(filepath.Join(dir, SubmissionHistoryFile), &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// Save writes the history back to the settings folder.
func (h *History) Save(dir string) error {
	return writeJSON(filepath.Join(dir, SubmissionHistoryFile), h)
}

// RecordCompletion marks a submission finished and appends it to the
// history. Completed stays false when the server reported a different
// status.
func RecordCompletion(dir, simName, status string) error {
	list, err := LoadSubmissionList(dir)
	if err != nil {
		return err
	}
	history, err := LoadHistory(dir)
	if err != nil {
		return err
	}
	sub, ok := list.Submissions[simName]
	if !ok {
		return fmt.Errorf("%s is not in the submission list", simName)
	}
	if status == "Completed" {
		sub.Completed = true
	}
	history.History = append(history.History, sub)
	if err := list.Save(dir); err != nil {
		return err
	}
	return history.Save(dir)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
