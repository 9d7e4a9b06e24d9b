package par2

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/javi11/nntppool/v4/errs"
)

// Discover finds every "<baseName>*.par2" file in dir, parses them, and
// merges their recovery slices into the one main volume (the file whose
// name does not contain ".vol"), mirroring
// original_source/src/par2/parsing.rs's Par2Set::discover.
func Discover(dir, baseName string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "PAR2: failed to read directory", err)
	}

	var par2Files []string
	var mainFile string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, baseName) || !strings.HasSuffix(strings.ToLower(name), ".par2") {
			continue
		}
		par2Files = append(par2Files, filepath.Join(dir, name))
		if !strings.Contains(strings.ToLower(name), ".vol") {
			mainFile = filepath.Join(dir, name)
		}
	}

	if mainFile == "" {
		return nil, errs.New(errs.KindProtocol, "PAR2: no main volume file found")
	}
	sort.Strings(par2Files)

	mainData, err := os.ReadFile(mainFile)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "PAR2: failed to read main volume", err)
	}
	mainParsed, err := Parse(mainData)
	if err != nil {
		return nil, err
	}

	totalRecoverySlices := mainParsed.RecoverySliceCount()

	for _, path := range par2Files {
		if path == mainFile {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.KindIO, "PAR2: failed to read volume file", err)
		}
		volume, err := Parse(data)
		if err != nil {
			return nil, err
		}
		if err := mainParsed.MergeRecoverySlices(volume); err != nil {
			return nil, err
		}
		totalRecoverySlices += volume.RecoverySliceCount()
	}

	return &Set{
		Main:                mainParsed,
		Files:               par2Files,
		TotalRecoverySlices: totalRecoverySlices,
	}, nil
}
