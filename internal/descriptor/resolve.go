package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/vrsandeep/plugin-host/internal/util"
)

// ResolvedProvider is an export service whose module was found on disk.
type ResolvedProvider struct {
	Title LocString `json:"title"`
	File  string    `json:"file"`
	Path  string    `json:"path"`
}

// Resolved pairs a descriptor with the absolute paths of the modules it
// references. Like Descriptor, it is read-only.
type Resolved struct {
	Descriptor       *Descriptor        `json:"-"`
	BaseDir          string             `json:"baseDir"`
	ExportServices   []ResolvedProvider `json:"exportServices"`
	MetadataProvider string             `json:"metadataProvider,omitempty"`
}

// ResolveReferences locates every module the descriptor names, relative to
// baseDir. Any reference that is missing, escapes baseDir, or cannot be
// loaded yields an UnresolvedReference error.
func (d *Descriptor) ResolveReferences(baseDir string) (*Resolved, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, unresolved("", baseDir, "cannot resolve plugin directory", err)
	}

	r := &Resolved{
		Descriptor:     d,
		BaseDir:        base,
		ExportServices: make([]ResolvedProvider, 0, len(d.ExportServiceProviders)),
	}

	for i, p := range d.ExportServiceProviders {
		field := fmt.Sprintf("exportServiceProvider[%d].file", i)
		if len(d.ExportServiceProviders) == 1 {
			field = "exportServiceProvider.file"
		}
		path, err := resolveModule(base, field, p.File)
		if err != nil {
			return nil, err
		}
		r.ExportServices = append(r.ExportServices, ResolvedProvider{Title: p.Title, File: p.File, Path: path})
	}

	if d.MetadataProvider != "" {
		path, err := resolveModule(base, "metadataProvider", d.MetadataProvider)
		if err != nil {
			return nil, err
		}
		r.MetadataProvider = path
	}
	return r, nil
}

func resolveModule(base, field, ref string) (string, error) {
	path, err := util.ResolveWithin(base, ref)
	if err != nil {
		return "", unresolved(field, ref, "reference cannot be resolved inside the plugin directory", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", unresolved(field, path, "referenced file does not exist", err)
		}
		return "", unresolved(field, path, "referenced file is not accessible", err)
	}
	if info.IsDir() {
		return "", unresolved(field, path, "reference names a directory, not a module", nil)
	}

	if err := checkLoadable(path); err != nil {
		return "", unresolved(field, path, "referenced module cannot be loaded", err)
	}
	return path, nil
}

// checkLoadable reads the module; JavaScript modules must also compile.
func checkLoadable(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".js") {
		if _, err := goja.Compile(filepath.Base(path), string(src), false); err != nil {
			return fmt.Errorf("compile: %w", err)
		}
	}
	return nil
}
