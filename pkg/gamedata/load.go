package gamedata

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// File names of the excel tables, relative to the data directory.
const (
	MonsterFile      = "MonsterExcelConfigData.json"
	AvatarFile       = "AvatarExcelConfigData.json"
	WeaponFile       = "WeaponExcelConfigData.json"
	MonsterCurveFile = "MonsterCurveExcelConfigData.json"
	AvatarCurveFile  = "AvatarCurveExcelConfigData.json"
)

// LoadDir loads every table from JSON files in dir. Missing files load as empty tables so a scene
// can run with a partial data set.
func LoadDir(dir string) (*Tables, error) {
	var data TablesData

	files := []struct {
		name string
		dst  any
	}{
		{MonsterFile, &data.Monsters},
		{AvatarFile, &data.Avatars},
		{WeaponFile, &data.Weapons},
		{MonsterCurveFile, &data.MonsterCurves},
		{AvatarCurveFile, &data.AvatarCurves},
	}
	for _, f := range files {
		if err := loadFile(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, err
		}
	}

	return NewTables(data)
}

func loadFile(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "failed to read %s", path)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return eris.Wrapf(err, "failed to decode %s", path)
	}
	return nil
}
