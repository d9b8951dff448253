package app

import (
	"context"
	"fmt"
	"log"

	"philosophers-service/internal/domain"
)

// GameDocument is the portable shape of a game: settings, levels and bindings, no user data.
type GameDocument struct {
	Game   domain.Game     `yaml:"game"`
	Levels []LevelDocument `yaml:"levels"`
}

type LevelDocument struct {
	Name       string          `yaml:"name"`
	BgColor    string          `yaml:"bgcolor"`
	Categories []CategoryInput `yaml:"categories"`
}

// ImportGame creates a new game from doc. It runs outside any viewer context and is
// meant for operators. The whole document is validated before anything is stored, and
// a game whose levels could not all be stored is removed again.
func (s *GameService) ImportGame(ctx context.Context, doc GameDocument) (int64, error) {
	game := doc.Game
	game.ID = 0
	if err := s.validateStruct(game); err != nil {
		return 0, err
	}

	levels := make([]SaveLevelInput, 0, len(doc.Levels))
	for i, ld := range doc.Levels {
		in := SaveLevelInput{Name: ld.Name, BgColor: ld.BgColor, Categories: ld.Categories}
		if in.BgColor == "" {
			in.BgColor = domain.DefaultBgColor
		}
		in.BgColor = domain.NormalizeColor(in.BgColor)
		if err := s.validateStruct(in); err != nil {
			return 0, fmt.Errorf("level %d: %w", i+1, err)
		}
		levels = append(levels, in)
	}

	now := s.now()
	game.TimeCreated = now
	game.TimeModified = now
	if err := s.store.SaveGame(ctx, &game); err != nil {
		return 0, err
	}

	for i, in := range levels {
		level := domain.Level{Game: game.ID, State: domain.LevelActive, Name: in.Name, BgColor: in.BgColor}
		bindings := make([]domain.CategoryBinding, 0, len(in.Categories))
		for _, c := range in.Categories {
			bindings = append(bindings, domain.CategoryBinding{MdlCategory: c.MdlCategory, Subcategories: c.Subcategories})
		}
		if err := s.store.SaveLevel(ctx, &level, bindings); err != nil {
			if derr := s.store.DeleteGame(ctx, game.ID); derr != nil {
				log.Printf("import: remove partial game %d: %v", game.ID, derr)
			}
			return 0, fmt.Errorf("level %d: %w", i+1, err)
		}
	}
	return game.ID, nil
}

// ExportGame builds the document of an existing game.
func (s *GameService) ExportGame(ctx context.Context, gameID int64) (GameDocument, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return GameDocument{}, err
	}
	levels, err := s.store.ListActiveLevels(ctx, gameID)
	if err != nil {
		return GameDocument{}, err
	}
	doc := GameDocument{Game: game, Levels: make([]LevelDocument, 0, len(levels))}
	for _, level := range levels {
		bindings, err := s.store.ListCategories(ctx, level.ID)
		if err != nil {
			return GameDocument{}, err
		}
		ld := LevelDocument{Name: level.Name, BgColor: level.BgColor, Categories: make([]CategoryInput, 0, len(bindings))}
		for _, b := range bindings {
			ld.Categories = append(ld.Categories, CategoryInput{MdlCategory: b.MdlCategory, Subcategories: b.Subcategories})
		}
		doc.Levels = append(doc.Levels, ld)
	}
	return doc, nil
}
