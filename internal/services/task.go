// Package services contains the application services: the task envelope
// service orchestrating per-task content keys and wraps, and the auth
// service supplying user ids.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/cryptox"
	"github.com/andrejsk/taskvault/internal/dbx"
	"github.com/andrejsk/taskvault/internal/keystore"
	"github.com/andrejsk/taskvault/internal/keywrap"
	"github.com/andrejsk/taskvault/internal/logging"
	"github.com/andrejsk/taskvault/internal/models"
	"github.com/andrejsk/taskvault/internal/repositories/keywraps"
	"github.com/andrejsk/taskvault/internal/repositories/tasks"
)

// TaskService implements the envelope operations over encrypted tasks.
//
// Each task gets one fresh content key at creation; the key is never
// rotated afterwards. Every mutation re-encrypts under the same key so all
// existing wraps stay valid, and every grant+wrap pair is written inside a
// single transaction.
type TaskService struct {
	db    *sql.DB
	tasks tasks.Repository
	wraps *keywrap.Manager
	log   logging.Logger
}

// NewTaskService builds a TaskService over db. The db-bound repo serves
// reads; writes open their own transactions.
func NewTaskService(db *sql.DB, keys *keystore.Store, log logging.Logger) *TaskService {
	return &TaskService{
		db:    db,
		tasks: tasks.NewSQLiteRepository(db),
		wraps: keywrap.NewManager(keys),
		log:   log,
	}
}

// Create makes a task whose details are encrypted at rest and grants access
// to the owner plus each distinct user in sharedWith (the owner is always
// included and deduplicated against the set). All grants of one creation
// share the same content key.
func (s *TaskService) Create(ctx context.Context, title, details string, ownerID int64, sharedWith []int64) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	contentKey, err := cryptox.GenerateKey()
	if err != nil {
		return 0, err
	}
	defer common.WipeByteArray(contentKey)

	encryptedDetails, err := cryptox.Encrypt(details, contentKey)
	if err != nil {
		return 0, fmt.Errorf("encryption error: %w", err)
	}

	var taskID int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := tasks.NewSQLiteRepository(tx)
		id, err := repo.Create(ctx, &models.Task{
			Title:     title,
			Details:   encryptedDetails,
			CreatedBy: ownerID,
			UpdatedBy: ownerID,
		})
		if err != nil {
			return err
		}
		taskID = id

		if err := s.wraps.Grant(ctx, tx, ownerID, id, contentKey); err != nil {
			return err
		}
		for _, userID := range normalizeShared(sharedWith, ownerID) {
			if err := s.wraps.Grant(ctx, tx, userID, id, contentKey); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info(ctx, "task created", "task_id", taskID, "owner", ownerID, "collaborators", len(sharedWith))
	return taskID, nil
}

// Read fetches and decrypts a single task for userID. The lookup joins the
// task with the user's grant and wrap, so it succeeds only when both exist
// for that exact pair; anything else is common.ErrorNotFound, deliberately
// not distinguishing a missing task from a missing permission.
func (s *TaskService) Read(ctx context.Context, taskID, userID int64) (*models.TaskView, error) {
	item, err := s.tasks.GetAuthorized(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	return s.decryptTask(item, userID)
}

// Update modifies a task the user already holds a valid wrap for. Changed
// details are re-encrypted under the recovered content key; the key is
// never rotated here.
func (s *TaskService) Update(ctx context.Context, taskID, userID int64, upd models.TaskUpdate) error {
	if upd.Empty() {
		return common.ErrorNoUpdates
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return fmt.Errorf("%w: title cannot be empty", common.ErrorValidation)
		}
		upd.Title = &title
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := tasks.NewSQLiteRepository(tx)

		item, err := repo.GetAuthorized(ctx, taskID, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotAuthorized
			}
			return err
		}

		if upd.Details != nil {
			contentKey, err := s.wraps.UnwrapForUser(userID, item.WrappedKey)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(contentKey)

			encrypted, err := cryptox.Encrypt(*upd.Details, contentKey)
			if err != nil {
				return fmt.Errorf("encryption error: %w", err)
			}
			upd.Details = &encrypted
		}

		return repo.Update(ctx, taskID, userID, upd)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "task updated", "task_id", taskID, "user", userID)
	return nil
}

// Share extends access to targetID. ownerID must currently hold a valid
// wrap; the content key is recovered from it as proof of access, so any
// authorized holder can share, not only the creator.
func (s *TaskService) Share(ctx context.Context, taskID, ownerID, targetID int64) error {
	if targetID <= 0 {
		return common.ErrorInvalidUserID
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		wrapped, err := keywraps.NewSQLiteRepository(tx).Get(ctx, ownerID, taskID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotAuthorized
			}
			return err
		}

		contentKey, err := s.wraps.UnwrapForUser(ownerID, wrapped)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(contentKey)

		return s.wraps.Grant(ctx, tx, targetID, taskID, contentKey)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "task shared", "task_id", taskID, "owner", ownerID, "target", targetID)
	return nil
}

// ListForUser returns every task the user is authorized to access,
// decrypted, ordered by creation time ascending.
func (s *TaskService) ListForUser(ctx context.Context, userID int64) ([]models.TaskView, error) {
	rows, err := s.tasks.ListAuthorized(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.TaskView, 0, len(rows))
	for i := range rows {
		view, err := s.decryptTask(&rows[i], userID)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, nil
}

func (s *TaskService) decryptTask(item *models.TaskWithWrap, userID int64) (*models.TaskView, error) {
	contentKey, err := s.wraps.UnwrapForUser(userID, item.WrappedKey)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(contentKey)

	details, err := cryptox.Decrypt(item.Details, contentKey)
	if err != nil {
		return nil, err
	}

	return &models.TaskView{
		ID:         item.ID,
		Title:      item.Title,
		Details:    details,
		CreatedBy:  item.CreatedBy,
		UpdatedBy:  item.UpdatedBy,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
		IsComplete: item.IsComplete,
	}, nil
}

// normalizeShared drops duplicates, non-positive ids and the owner itself,
// preserving input order.
func normalizeShared(sharedWith []int64, ownerID int64) []int64 {
	seen := map[int64]struct{}{ownerID: {}}
	result := make([]int64, 0, len(sharedWith))
	for _, id := range sharedWith {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
