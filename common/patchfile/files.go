package patchfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lyzr/dbpatcher/common/models"
)

// File names inside a patch directory
const (
	PatchListName      = "PatchList.txt"
	DependencyListName = "DependencyList.dpn"
	ObjectListName     = "ObjectList.txt"
)

const patchDirTimeLayout = "2006-01-02_15-04-05"

// ErrWriteConflict is returned when an exclusive write finds the target already present
var ErrWriteConflict = errors.New("file already exists")

// removeFile is swapped out in tests to simulate a target that cannot be deleted
var removeFile = os.Remove

// MakePatchDir creates <root>/<database>_build_<timestamp> and returns its path.
// It fails if the directory already exists.
func MakePatchDir(root, database string, now time.Time) (string, error) {
	name := fmt.Sprintf("%s_build_%s", database, now.Format(patchDirTimeLayout))
	dir := filepath.Join(root, name)

	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create patch directory: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir, nil
	}
	return abs, nil
}

// WritePatchList writes list to <dir>/PatchList.txt. The file must not exist:
// an existing file is left untouched and ErrWriteConflict is returned.
func WritePatchList(dir string, list *models.PatchList) (string, error) {
	path := filepath.Join(dir, PatchListName)

	data, err := EncodeObjectList(list)
	if err != nil {
		return "", fmt.Errorf("encode patch list: %w", err)
	}

	if err := writeExclusive(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDependencyList replaces <dir>/DependencyList.dpn with list. The content
// goes to a temporary file first; the old file is removed and the temporary
// file renamed into place. If the old file cannot be removed it stays as it
// was and the temporary file is discarded.
func WriteDependencyList(dir string, list *models.PatchList) (string, error) {
	path := filepath.Join(dir, DependencyListName)

	data, err := EncodeDependencyList(list)
	if err != nil {
		return "", fmt.Errorf("encode dependency list: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "DependencyList-*.dpn.tmp")
	if err != nil {
		return "", fmt.Errorf("create temporary dependency list: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temporary dependency list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temporary dependency list: %w", err)
	}

	if err := removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		os.Remove(tmpPath)
		return "", fmt.Errorf("remove old dependency list: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename dependency list: %w", err)
	}

	return path, nil
}

// ReadObjectList parses <dir>/ObjectList.txt
func ReadObjectList(dir string) (*models.PatchList, error) {
	return readList(filepath.Join(dir, ObjectListName), ParseObjectList)
}

// ReadDependencyList parses <dir>/DependencyList.dpn
func ReadDependencyList(dir string) (*models.PatchList, error) {
	return readList(filepath.Join(dir, DependencyListName), ParseDependencyList)
}

// RemovePatchList deletes <dir>/PatchList.txt; a missing file is not an error
func RemovePatchList(dir string) error {
	err := os.Remove(filepath.Join(dir, PatchListName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove patch list: %w", err)
	}
	return nil
}

func readList(path string, parse func(io.Reader) (*models.PatchList, error)) (*models.PatchList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	list, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return list, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrWriteConflict, path)
		}
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
