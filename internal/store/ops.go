package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
)

// CreateProject creates a project seeded with the full task catalog and
// returns its ID. On any failure it returns "" and the snapshot is unchanged.
func (s *Store) CreateProject(ctx context.Context, fields models.ProjectFields) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	fields = fields.Normalize(s.now())
	if err := fields.Validate(); err != nil {
		return "", err
	}
	if err := s.ready(ctx, "create_project"); err != nil {
		return "", err
	}

	id, next, err := s.backend.createProject(ctx, s.current(), fields)
	s.record(ctx, "create_project", err)
	if err != nil {
		s.log.Error().Err(err).Str("name", fields.Name).Msg("project not created")
		return "", err
	}

	s.commit("create_project", next)
	s.log.Info().Str("project", id).Str("domain", fields.Domain).Msg("project created")
	return id, nil
}

// UpdateTask merges the present fields of u into a task. A missing task is a
// no-op. A status change appends a history entry first; moving to done
// without a completion date stamps the current time.
func (s *Store) UpdateTask(ctx context.Context, taskID string, u models.TaskUpdate) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if err := s.ready(ctx, "update_task"); err != nil {
		return err
	}
	return s.updateTask(ctx, "update_task", taskID, u)
}

func (s *Store) updateTask(ctx context.Context, op, taskID string, u models.TaskUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	cur := s.current()
	i := cur.TaskIndex(taskID)
	if i < 0 || u.Empty() {
		s.recordNoop(ctx, op)
		return nil
	}
	task := cur.Tasks[i]

	var entry *models.HistoryEntry
	if u.Status != nil && *u.Status != task.Status {
		entry = &models.HistoryEntry{
			ID:        uuid.NewString(),
			TaskID:    task.ID,
			TaskTitle: task.Title,
			Category:  task.Category,
			OldStatus: task.Status,
			NewStatus: *u.Status,
			Actor:     s.actor(),
			ChangedAt: s.now(),
			Notes:     u.ChangeNote,
		}
	}
	if u.Status != nil && *u.Status == models.StatusDone && u.CompletionDate == nil &&
		(task.Status != models.StatusDone || task.CompletionDate == nil) {
		now := s.now()
		u.CompletionDate = &now
	}

	next, err := s.backend.updateTask(ctx, cur, taskID, entry, u)
	s.record(ctx, op, err)
	if err != nil {
		s.log.Error().Err(err).Str("task", taskID).Msg("task not updated")
		return err
	}

	s.commit(op, next)
	if entry != nil {
		s.log.Debug().Str("task", taskID).
			Str("from", string(entry.OldStatus)).Str("to", string(entry.NewStatus)).
			Msg("status changed")
	}
	return nil
}

// UploadAttachment stores a file for a task and appends its reference to the
// task's attachments. Guest mode inlines the file as a data URI. On failure
// it returns "".
func (s *Store) UploadAttachment(ctx context.Context, taskID, filename string, data []byte) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.ready(ctx, "upload_attachment"); err != nil {
		return "", err
	}
	task, ok := s.Task(taskID)
	if !ok {
		return "", fmt.Errorf("task %q: %w", taskID, seoerrors.ErrNotFound)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("attachment %w", seoerrors.ErrEmptyValue)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%s is %d bytes, limit %d: %w", filename, len(data), s.maxBytes, seoerrors.ErrAttachmentTooLarge)
	}

	ref, err := s.backend.putAttachment(ctx, taskID, filename, data)
	if err != nil {
		s.record(ctx, "upload_attachment", err)
		s.log.Error().Err(err).Str("task", taskID).Str("file", filename).Msg("attachment upload failed")
		return "", fmt.Errorf("%w: %w", seoerrors.ErrAttachmentUpload, err)
	}

	refs := append(slices.Clone(task.Attachments), ref)
	if err := s.updateTask(ctx, "upload_attachment", taskID, models.WithAttachments(refs)); err != nil {
		s.backend.dropAttachment(ctx, ref)
		return "", fmt.Errorf("%w: %w", seoerrors.ErrAttachmentUpload, err)
	}
	return ref, nil
}

// DeleteAttachment removes one occurrence of ref from a task's attachments,
// the last one when the same reference was attached more than once. In cloud
// mode the stored object is deleted too once no other occurrence remains and
// the reference points into the attachment store; a failed object delete is
// logged and ignored.
func (s *Store) DeleteAttachment(ctx context.Context, taskID, ref string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.ready(ctx, "delete_attachment"); err != nil {
		return err
	}
	task, ok := s.Task(taskID)
	if !ok {
		s.recordNoop(ctx, "delete_attachment")
		return nil
	}
	i := lastIndex(task.Attachments, ref)
	if i < 0 {
		s.recordNoop(ctx, "delete_attachment")
		return nil
	}

	refs := slices.Delete(slices.Clone(task.Attachments), i, i+1)
	if err := s.updateTask(ctx, "delete_attachment", taskID, models.WithAttachments(refs)); err != nil {
		return err
	}
	if !slices.Contains(refs, ref) {
		s.backend.dropAttachment(ctx, ref)
	}
	return nil
}

func lastIndex(refs []string, ref string) int {
	for i := len(refs) - 1; i >= 0; i-- {
		if refs[i] == ref {
			return i
		}
	}
	return -1
}

// DeleteProject removes a project with all its tasks and their history. A
// missing project is a no-op.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.ready(ctx, "delete_project"); err != nil {
		return err
	}
	if _, ok := s.Project(projectID); !ok {
		s.recordNoop(ctx, "delete_project")
		return nil
	}

	next, err := s.backend.deleteProject(ctx, s.current(), projectID)
	s.record(ctx, "delete_project", err)
	if err != nil {
		s.log.Error().Err(err).Str("project", projectID).Msg("project not deleted")
		return err
	}

	s.commit("delete_project", next)
	s.log.Info().Str("project", projectID).Msg("project deleted")
	return nil
}

// ready lets the backend recover before a mutation; a failure is recorded
// against op
func (s *Store) ready(ctx context.Context, op string) error {
	err := s.backend.ready(ctx)
	if err != nil {
		s.record(ctx, op, err)
		s.log.Error().Err(err).Str("op", op).Msg("store not writable")
	}
	return err
}
