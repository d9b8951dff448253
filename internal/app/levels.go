package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"philosophers-service/internal/domain"

	"github.com/google/uuid"
)

// SaveLevelInput carries the editable fields of a level.
type SaveLevelInput struct {
	ID          int64           `json:"levelid"`
	Name        string          `json:"name" validate:"required,max=255"`
	BgColor     string          `json:"bgcolor" validate:"hexcolor,len=4|len=7"`
	Categories  []CategoryInput `json:"categories" validate:"dive"`
	Image       *ImageUpload    `json:"image,omitempty"`
	RemoveImage bool            `json:"remove_image"`
}

type CategoryInput struct {
	MdlCategory   int64 `json:"mdlcategory" yaml:"mdlcategory" validate:"gt=0"`
	Subcategories bool  `json:"subcategories" yaml:"subcategories"`
}

// ImageUpload is a level background image; Content arrives base64 encoded in JSON.
type ImageUpload struct {
	MimeType string `json:"mimetype" validate:"required,max=100"`
	Content  []byte `json:"content" validate:"required"`
}

// GetLevels lists the active levels. With a session id the levels follow the session's
// frozen order and carry the outcome of its attempts; levels deleted after the session
// started stay listed so the session can still be finished.
func (s *GameService) GetLevels(ctx context.Context, viewer domain.Viewer, gameID, sessionID int64) ([]domain.LevelView, error) {
	game, err := s.viewableGame(ctx, viewer, gameID)
	if err != nil {
		return nil, err
	}
	levels, err := s.store.ListActiveLevels(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var questions []domain.Question
	if sessionID != 0 {
		session, err := s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if err := s.policy.RequireSessionOwner(session, gameID, viewer); err != nil {
			return nil, err
		}
		questions, err = s.store.ListQuestions(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		levels, err = s.withSnapshotLevels(ctx, gameID, levels, session.LevelsOrder)
		if err != nil {
			return nil, err
		}
		levels = domain.OrderLevels(levels, session.LevelsOrder)
	}

	views := domain.BuildLevelViews(levels, questions, game.LevelTileHeight.Pixels())
	for i := range views {
		views[i].ImageURL = s.imageURL(views[i].Level)
	}
	return views, nil
}

// GetLevelCategories returns the bindings of one level.
func (s *GameService) GetLevelCategories(ctx context.Context, viewer domain.Viewer, gameID, levelID int64) ([]domain.CategoryBinding, error) {
	if _, err := s.managedGame(ctx, viewer, gameID); err != nil {
		return nil, err
	}
	if _, err := s.gameLevel(ctx, gameID, levelID); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, levelID)
}

// SaveLevel creates or updates a level and replaces its category bindings.
func (s *GameService) SaveLevel(ctx context.Context, viewer domain.Viewer, gameID int64, in SaveLevelInput) (int64, error) {
	if _, err := s.managedGame(ctx, viewer, gameID); err != nil {
		return 0, err
	}
	if in.BgColor == "" {
		in.BgColor = domain.DefaultBgColor
	}
	in.BgColor = domain.NormalizeColor(in.BgColor)
	if err := s.validateStruct(in); err != nil {
		return 0, err
	}

	level := domain.Level{Game: gameID, State: domain.LevelActive}
	if in.ID != 0 {
		existing, err := s.gameLevel(ctx, gameID, in.ID)
		if err != nil {
			return 0, err
		}
		if existing.State != domain.LevelActive {
			return 0, domain.ErrLevelNotFound
		}
		level = existing
	}
	level.Name = in.Name
	level.BgColor = in.BgColor

	bindings := make([]domain.CategoryBinding, 0, len(in.Categories))
	for _, c := range in.Categories {
		bindings = append(bindings, domain.CategoryBinding{MdlCategory: c.MdlCategory, Subcategories: c.Subcategories})
	}
	if err := s.store.SaveLevel(ctx, &level, bindings); err != nil {
		return 0, err
	}

	if in.RemoveImage || in.Image != nil {
		s.removeImage(ctx, level)
		if err := s.store.SetLevelImage(ctx, level.ID, ""); err != nil {
			return 0, err
		}
	}
	if in.Image != nil {
		if err := s.storeImage(ctx, level.ID, *in.Image); err != nil {
			return 0, err
		}
	}
	return level.ID, nil
}

// DeleteLevel soft-deletes a level and renumbers the remaining ones.
func (s *GameService) DeleteLevel(ctx context.Context, viewer domain.Viewer, gameID, levelID int64) error {
	if _, err := s.managedGame(ctx, viewer, gameID); err != nil {
		return err
	}
	level, err := s.gameLevel(ctx, gameID, levelID)
	if err != nil {
		return err
	}
	if level.State != domain.LevelActive {
		return domain.ErrInvalidTransition
	}
	if err := s.store.DeleteLevel(ctx, levelID); err != nil {
		return err
	}
	s.removeImage(ctx, level)
	return nil
}

// MoveLevel swaps a level with its neighbour in the given direction.
func (s *GameService) MoveLevel(ctx context.Context, viewer domain.Viewer, gameID, levelID int64, dir domain.Direction) error {
	if _, err := s.managedGame(ctx, viewer, gameID); err != nil {
		return err
	}
	if _, err := s.gameLevel(ctx, gameID, levelID); err != nil {
		return err
	}
	return s.store.MoveLevel(ctx, levelID, dir)
}

// LevelImage returns the stored background image of a level.
func (s *GameService) LevelImage(ctx context.Context, viewer domain.Viewer, levelID int64, name string) ([]byte, string, error) {
	level, err := s.store.GetLevel(ctx, levelID)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.viewableGame(ctx, viewer, level.Game); err != nil {
		return nil, "", err
	}
	if s.blobs == nil || level.Image == "" || level.Image != name {
		return nil, "", domain.ErrFileNotFound
	}
	return s.blobs.Get(ctx, imageKey(level.ID, level.Image))
}

// withSnapshotLevels adds the levels of a session order that are no longer active.
func (s *GameService) withSnapshotLevels(ctx context.Context, gameID int64, levels []domain.Level, order []int64) ([]domain.Level, error) {
	listed := make(map[int64]bool, len(levels))
	for _, l := range levels {
		listed[l.ID] = true
	}
	for _, id := range order {
		if listed[id] {
			continue
		}
		level, err := s.gameLevel(ctx, gameID, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
		listed[id] = true
	}
	return levels, nil
}

func (s *GameService) gameLevel(ctx context.Context, gameID, levelID int64) (domain.Level, error) {
	level, err := s.store.GetLevel(ctx, levelID)
	if err != nil {
		return domain.Level{}, err
	}
	if level.Game != gameID {
		return domain.Level{}, domain.ErrLevelNotFound
	}
	return level, nil
}

func (s *GameService) storeImage(ctx context.Context, levelID int64, img ImageUpload) error {
	if s.blobs == nil {
		return fmt.Errorf("no blob store configured: %w", domain.ErrInvalidInput)
	}
	name := uuid.NewString()
	if err := s.blobs.Put(ctx, imageKey(levelID, name), img.MimeType, img.Content); err != nil {
		return err
	}
	return s.store.SetLevelImage(ctx, levelID, name)
}

func (s *GameService) removeImage(ctx context.Context, level domain.Level) {
	if s.blobs == nil || level.Image == "" {
		return
	}
	if err := s.blobs.Delete(ctx, imageKey(level.ID, level.Image)); err != nil {
		log.Printf("delete image of level %d: %v", level.ID, err)
	}
}

func (s *GameService) imageURL(level domain.Level) string {
	if level.Image == "" {
		return ""
	}
	return s.fileRoute + imageKey(level.ID, level.Image)
}

func imageKey(levelID int64, name string) string {
	return "levels/" + strconv.FormatInt(levelID, 10) + "/" + name
}
