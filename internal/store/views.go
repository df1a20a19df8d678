package store

import (
	"math"
	"slices"
	"strings"

	"github.com/tgienger/seotrack/internal/models"
)

// Stats counts a project's tasks per status
type Stats struct {
	Total        int `json:"total"`
	NotStarted   int `json:"notStarted"`
	InProgress   int `json:"inProgress"`
	Done         int `json:"done"`
	Skipped      int `json:"skipped"`
	MinutesSpent int `json:"minutesSpent"`
}

// CategoryScore is the score of one category of a project
type CategoryScore struct {
	Category models.Category `json:"category"`
	Score    int             `json:"score"`
	Tasks    int             `json:"tasks"`
	Done     int             `json:"done"`
}

// TaskFilter narrows TasksOf. Zero fields match everything.
type TaskFilter struct {
	Category models.Category
	Status   models.Status
	// Query is matched case-insensitively against title and description
	Query string
}

func (f TaskFilter) match(t models.Task) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q)
	}
	return true
}

// Snapshot returns a copy of the whole snapshot
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Projects returns all projects, newest first
func (s *Store) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Projects)
}

// Project returns a project by ID
func (s *Store) Project(id string) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.snap.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

// Task returns a task by ID
func (s *Store) Task(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.snap.TaskIndex(id); i >= 0 {
		return s.snap.Tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// TasksOf returns the project's tasks matching f in catalog order
func (s *Store) TasksOf(projectID string, f TaskFilter) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.snap.Tasks {
		if t.ProjectID == projectID && f.match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// HistoryOf returns the history of the project's tasks, newest first
func (s *Store) HistoryOf(projectID string) []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := map[string]bool{}
	for _, t := range s.snap.Tasks {
		if t.ProjectID == projectID {
			owned[t.ID] = true
		}
	}
	out := []models.HistoryEntry{}
	for _, h := range s.snap.History {
		if owned[h.TaskID] {
			out = append(out, h)
		}
	}
	slices.SortStableFunc(out, func(a, b models.HistoryEntry) int {
		return b.ChangedAt.Compare(a.ChangedAt)
	})
	return out
}

// ScoreOf returns the impact-weighted completion percentage of a project
func (s *Store) ScoreOf(projectID string) int {
	return Score(s.TasksOf(projectID, TaskFilter{}))
}

// StatsOf returns the per-status task counts of a project
func (s *Store) StatsOf(projectID string) Stats {
	return ComputeStats(s.TasksOf(projectID, TaskFilter{}))
}

// CategoryScoresOf returns the score of every category present in a
// project, in category display order
func (s *Store) CategoryScoresOf(projectID string) []CategoryScore {
	tasks := s.TasksOf(projectID, TaskFilter{})
	out := []CategoryScore{}
	for _, c := range models.Categories() {
		var in []models.Task
		for _, t := range tasks {
			if t.Category == c {
				in = append(in, t)
			}
		}
		if len(in) == 0 {
			continue
		}
		out = append(out, CategoryScore{
			Category: c,
			Score:    Score(in),
			Tasks:    len(in),
			Done:     ComputeStats(in).Done,
		})
	}
	return out
}

// Score is round(100 * weight of done tasks / weight of all tasks), or 0
// when there is no weight at all
func Score(tasks []models.Task) int {
	var done, total int
	for _, t := range tasks {
		w := t.Impact.Weight()
		total += w
		if t.Status == models.StatusDone {
			done += w
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// ComputeStats buckets tasks by status
func ComputeStats(tasks []models.Task) Stats {
	var st Stats
	for _, t := range tasks {
		st.Total++
		st.MinutesSpent += t.MinutesSpent
		switch t.Status {
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusDone:
			st.Done++
		case models.StatusSkipped:
			st.Skipped++
		default:
			st.NotStarted++
		}
	}
	return st
}
