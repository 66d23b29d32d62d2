package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

const planStateFile = "current_plan.toml"

func getPlanStatePath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, planStateFile), nil
}

func SavePlanState(dir string, state *models.PlanState) error {
	path, err := getPlanStatePath(dir)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(state)
}

func LoadPlanState(dir string) (*models.PlanState, error) {
	path, err := getPlanStatePath(dir)
	if err != nil {
		return nil, err
	}

	var state models.PlanState
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func ClearPlanState(dir string) error {
	path, err := getPlanStatePath(dir)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func PlanStateExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, planStateFile))
	return err == nil
}
