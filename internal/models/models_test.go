package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
)

func TestImpactWeight(t *testing.T) {
	assert.Equal(t, 3, ImpactHigh.Weight())
	assert.Equal(t, 2, ImpactMedium.Weight())
	assert.Equal(t, 1, ImpactLow.Weight())
	assert.Equal(t, 0, Impact("huge").Weight())
}

func TestStatusNext(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusNotStarted.Next())
	assert.Equal(t, StatusDone, StatusInProgress.Next())
	assert.Equal(t, StatusSkipped, StatusDone.Next())
	assert.Equal(t, StatusNotStarted, StatusSkipped.Next())
}

func TestNewTaskFromTemplate(t *testing.T) {
	tmpl := TaskTemplate{
		Category:       CategoryTechnical,
		Title:          "Submit XML sitemap",
		ExecutionSteps: []string{"generate", "submit"},
		Tools:          []string{"Search Console"},
		Impact:         ImpactHigh,
		Priority:       PriorityCritical,
	}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	task := NewTaskFromTemplate("p1", tmpl, created)

	assert.Equal(t, "p1", task.ProjectID)
	assert.Equal(t, StatusNotStarted, task.Status)
	assert.Empty(t, task.Notes)
	assert.Empty(t, task.ProofURL)
	assert.Zero(t, task.MinutesSpent)
	assert.NotNil(t, task.Attachments)
	assert.Empty(t, task.Attachments)
	assert.Nil(t, task.CompletionDate)
	assert.Equal(t, created, task.CreatedAt)

	task.ExecutionSteps[0] = "changed"
	assert.Equal(t, "generate", tmpl.ExecutionSteps[0])
}

func TestTaskUpdateApply(t *testing.T) {
	base := Task{ID: "t1", Title: "Old", Notes: "keep", MinutesSpent: 10, Attachments: []string{"a"}}

	t.Run("omitted fields untouched", func(t *testing.T) {
		title := "New"
		got := TaskUpdate{Title: &title}.Apply(base)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, "keep", got.Notes)
		assert.Equal(t, 10, got.MinutesSpent)
		assert.Equal(t, []string{"a"}, got.Attachments)
	})

	t.Run("attachments replaced only when set", func(t *testing.T) {
		got := WithAttachments(nil).Apply(base)
		assert.Empty(t, got.Attachments)
		assert.Equal(t, []string{"a"}, base.Attachments)
	})
}

func TestTaskUpdateValidate(t *testing.T) {
	bad := Status("blocked")
	neg := -5
	zero := 0

	tests := []struct {
		name    string
		update  TaskUpdate
		wantErr bool
	}{
		{name: "empty", update: TaskUpdate{}},
		{name: "unknown status", update: TaskUpdate{Status: &bad}, wantErr: true},
		{name: "negative minutes", update: TaskUpdate{MinutesSpent: &neg}, wantErr: true},
		{name: "zero minutes", update: TaskUpdate{MinutesSpent: &zero}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.update.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, seoerrors.ErrInvalidInput))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProjectFields(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	f := ProjectFields{Name: "  Acme ", Domain: "HTTPS://Acme.com/blog/"}.Normalize(now)
	require.NoError(t, f.Validate())
	assert.Equal(t, "Acme", f.Name)
	assert.Equal(t, "acme.com", f.Domain)
	assert.Equal(t, "2026-10-15", f.StartDate)

	missing := ProjectFields{Name: "x"}.Normalize(now)
	assert.ErrorIs(t, missing.Validate(), seoerrors.ErrInvalidInput)

	badDate := ProjectFields{Name: "x", Domain: "x.com", StartDate: "15/10/2026"}.Normalize(now)
	assert.ErrorIs(t, badDate.Validate(), seoerrors.ErrInvalidInput)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	done := time.Now()
	s := Snapshot{Tasks: []Task{{ID: "t1", Attachments: []string{"a"}, CompletionDate: &done}}}

	c := s.Clone()
	c.Tasks[0].Attachments[0] = "b"
	*c.Tasks[0].CompletionDate = done.Add(time.Hour)

	assert.Equal(t, "a", s.Tasks[0].Attachments[0])
	assert.Equal(t, done, *s.Tasks[0].CompletionDate)
	assert.NotNil(t, c.Projects)
	assert.NotNil(t, c.History)
}
