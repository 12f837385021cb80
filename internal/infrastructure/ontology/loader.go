// Package ontology loads the hand-authored reference tables from disk and
// builds the domain knowledge base. Validation happens in the domain
// constructor; this package only handles files and shapes.
package ontology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/convivio/convivio/internal/domain/ontology"
	"go.uber.org/zap"
)

// Table file names expected under the ontology directory.
const (
	ingredientsFile = "ingredients.json"
	stylesFile      = "styles.json"
	techniquesFile  = "techniques.json"
)

// Load reads the three tables from dir and builds the knowledge base.
func Load(dir string, logger *zap.Logger) (*domain.KnowledgeBase, error) {
	var ingredients []domain.Ingredient
	if err := readTable(filepath.Join(dir, ingredientsFile), &ingredients); err != nil {
		return nil, err
	}

	var styles []domain.Style
	if err := readTable(filepath.Join(dir, stylesFile), &styles); err != nil {
		return nil, err
	}

	var techniques []domain.Technique
	if err := readTable(filepath.Join(dir, techniquesFile), &techniques); err != nil {
		return nil, err
	}

	kb, err := domain.NewKnowledgeBase(ingredients, styles, techniques)
	if err != nil {
		return nil, fmt.Errorf("build knowledge base: %w", err)
	}

	logger.Info("ontology loaded",
		zap.String("dir", dir),
		zap.Int("ingredients", kb.IngredientCount()),
		zap.Int("styles", kb.StyleCount()),
		zap.Int("techniques", kb.TechniqueCount()),
	)
	return kb, nil
}

// readTable decodes one JSON table into out.
func readTable(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ontology table: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
