package store

import (
	"context"

	"github.com/tgienger/seotrack/internal/db"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/objstore"
)

// LocalStore persists the guest snapshot. Load returns an error only when
// stored data exists but could not be read.
type LocalStore interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// RemoteScope is the relational backend as seen by one owner
type RemoteScope interface {
	FetchAll(ctx context.Context) (models.Snapshot, error)
	InsertProject(ctx context.Context, fields models.ProjectFields) (models.Project, error)
	InsertTasksForProject(ctx context.Context, projectID string, templates []models.TaskTemplate) error
	// UpdateTaskWithHistory appends entry (when non-nil) and applies u atomically
	UpdateTaskWithHistory(ctx context.Context, taskID string, entry *models.HistoryEntry, u models.TaskUpdate) error
	DeleteProject(ctx context.Context, projectID string) error
}

// Remote hands out owner scopes of the relational backend
type Remote interface {
	ForOwner(owner string) (RemoteScope, error)
}

// ObjectScope is the attachment object store as seen by one owner
type ObjectScope interface {
	Upload(ctx context.Context, taskID, filename string, data []byte) (string, error)
	Delete(ctx context.Context, objectPath string) error
	PathFromURL(ref string) (string, bool)
}

// Objects hands out owner views of the attachment object store
type Objects interface {
	ForOwner(owner string) ObjectScope
}

// FromDB adapts a *db.DB to Remote
func FromDB(d *db.DB) Remote {
	return dbRemote{d}
}

type dbRemote struct{ d *db.DB }

func (r dbRemote) ForOwner(owner string) (RemoteScope, error) {
	s, err := r.d.ForOwner(owner)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FromBucket adapts an *objstore.Bucket to Objects
func FromBucket(b *objstore.Bucket) Objects {
	return bucketObjects{b}
}

type bucketObjects struct{ b *objstore.Bucket }

func (o bucketObjects) ForOwner(owner string) ObjectScope {
	return o.b.ForOwner(owner)
}
