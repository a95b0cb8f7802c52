package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
)

// AttachmentOwner names what an upload hangs off: a task or a project.
type AttachmentOwner struct {
	TaskID    uint
	ProjectID uint
}

type AttachmentService struct {
	db       *gorm.DB
	storage  FileStorage
	activity *ActivityService
	queue    TaskQueue
}

func NewAttachmentService(db *gorm.DB, storage FileStorage, activity *ActivityService, queue TaskQueue) *AttachmentService {
	return &AttachmentService{db: db, storage: storage, activity: activity, queue: queue}
}

// cleanFilename keeps only the base name of a client-supplied filename.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSpace(name)
}

// Upload stores the bytes and then records the attachment. The file is
// written before the row exists; if the row does not commit the file is
// removed again.
func (s *AttachmentService) Upload(ctx context.Context, userID uint, owner AttachmentOwner, filename string, r io.Reader, size int64) (*models.Attachment, error) {
	if (owner.TaskID == 0) == (owner.ProjectID == 0) {
		return nil, response.NewBadRequest("attachment must belong to exactly one of a task or a project")
	}
	name := cleanFilename(filename)
	if name == "" {
		return nil, response.NewValidation("filename is required")
	}

	var (
		attachment models.Attachment
		stored     string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var projectID uint
		if owner.TaskID != 0 {
			task, _, err := authorizeTask(tx, owner.TaskID, userID)
			if err != nil {
				return err
			}
			projectID = task.ProjectID
			attachment.TaskID = &task.ID
		} else {
			project, err := authorizeProject(tx, owner.ProjectID, userID, loadOpts{})
			if err != nil {
				return err
			}
			projectID = project.ID
			attachment.ProjectID = &project.ID
		}

		var err error
		if stored, err = s.storage.Save(ctx, name, r, size); err != nil {
			return fmt.Errorf("store file: %w", err)
		}
		attachment.Filename = name
		attachment.FilePath = stored
		attachment.Size = size

		if err := tx.Create(&attachment).Error; err != nil {
			return fmt.Errorf("create attachment: %w", err)
		}
		return s.activity.Record(tx, projectID, actor(userID), fmt.Sprintf("Attached file '%s'", name), "")
	})
	if err != nil {
		if stored != "" {
			s.discard(stored)
		}
		return nil, err
	}
	return &attachment, nil
}

// Delete removes the row and logs it, then the file once the row is gone.
func (s *AttachmentService) Delete(ctx context.Context, userID, attachmentID uint) error {
	var path string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attachment, projectID, err := s.authorize(tx, userID, attachmentID)
		if err != nil {
			return err
		}
		path = attachment.FilePath
		if err := tx.Delete(attachment).Error; err != nil {
			return err
		}
		return s.activity.Record(tx, projectID, actor(userID), fmt.Sprintf("Deleted file '%s'", attachment.Filename), "")
	})
	if err != nil {
		return err
	}
	enqueueCleanup(s.queue, []string{path}, fmt.Sprintf("attachment %d deleted", attachmentID))
	return nil
}

// Open returns the attachment row and a reader over its bytes.
func (s *AttachmentService) Open(ctx context.Context, userID, attachmentID uint) (*models.Attachment, io.ReadCloser, error) {
	attachment, _, err := s.authorize(s.db.WithContext(ctx), userID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Open(ctx, attachment.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment %d: %w", attachmentID, err)
	}
	return attachment, rc, nil
}

// authorize resolves the attachment's project through its task when it has
// one and returns that project's id.
func (s *AttachmentService) authorize(tx *gorm.DB, userID, attachmentID uint) (*models.Attachment, uint, error) {
	var attachment models.Attachment
	if err := tx.First(&attachment, attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, response.NewNotFound("Attachment not found")
		}
		return nil, 0, err
	}

	switch {
	case attachment.TaskID != nil:
		_, project, err := authorizeTask(tx, *attachment.TaskID, userID)
		if err != nil {
			return nil, 0, err
		}
		return &attachment, project.ID, nil
	case attachment.ProjectID != nil:
		project, err := authorizeProject(tx, *attachment.ProjectID, userID, loadOpts{})
		if err != nil {
			return nil, 0, err
		}
		return &attachment, project.ID, nil
	default:
		return nil, 0, response.NewNotFound("Attachment not found")
	}
}

func (s *AttachmentService) discard(path string) {
	if err := s.storage.Delete(context.Background(), path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("[Attachment] Failed to remove orphaned file")
	}
}
