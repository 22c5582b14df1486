package plugin

import (
	"fmt"
	"io/fs"
	"path/filepath"
	goplugin "plugin"
	"strings"
)

const (
	filePrefix = "RegistryPlugin."
	fileSuffix = ".so"
	symbolName = "Plugin"
)

// IsPluginFile reports whether name follows the RegistryPlugin.*.so pattern.
func IsPluginFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(strings.ToLower(name), fileSuffix) &&
		len(name) > len(filePrefix)+len(fileSuffix)
}

// LoadDir opens every plugin shared object below dir and registers the
// plugin it exports. Files that fail to load are logged and skipped. It
// returns the number of plugins registered.
func (r *Registry) LoadDir(dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsPluginFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan plugin dir %s: %w", dir, err)
	}

	loaded := 0
	for _, path := range paths {
		p, err := open(path)
		if err != nil {
			r.log.Error("failed to load plugin", "path", path, "err", err)
			continue
		}
		if r.Register(p) {
			loaded++
		}
	}
	r.log.Info("plugins loaded", "dir", dir, "count", loaded, "candidates", len(paths))
	return loaded, nil
}

func open(path string) (Plugin, error) {
	so, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := so.Lookup(symbolName)
	if err != nil {
		return nil, err
	}
	return fromSymbol(sym)
}

// fromSymbol accepts an exported Plugin value, a pointer to a variable holding
// one, or a constructor.
func fromSymbol(sym any) (Plugin, error) {
	switch v := sym.(type) {
	case Plugin:
		return v, nil
	case *Plugin:
		if *v == nil {
			return nil, fmt.Errorf("symbol %s is nil", symbolName)
		}
		return *v, nil
	case func() Plugin:
		return v(), nil
	default:
		return nil, fmt.Errorf("symbol %s has type %T, want plugin.Plugin", symbolName, sym)
	}
}
