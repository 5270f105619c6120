package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/courierhq/courier/packages/envstore"
	"github.com/courierhq/courier/packages/model"
)

const (
	manifestFile    = "courier.yaml"
	collectionsDir  = "collections"
	environmentsDir = "environments"
)

// Manifest is the workspace-level settings file.
type Manifest struct {
	Name      string `yaml:"name"`
	ActiveEnv string `yaml:"activeEnv,omitempty"`
}

// Workspace is a fully loaded on-disk workspace: every collection and
// environment file under the root, plus the manifest.
type Workspace struct {
	Root         string
	Manifest     Manifest
	Collections  []*model.Collection
	Environments []*model.Environment
}

type requestFile struct {
	Name          string            `yaml:"name"`
	Method        string            `yaml:"method"`
	URL           string            `yaml:"url"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	Body          string            `yaml:"body,omitempty"`
	BodyType      string            `yaml:"bodyType,omitempty"`
	PathVariables map[string]string `yaml:"pathVariables,omitempty"`
	PreScript     string            `yaml:"preScript,omitempty"`
	PostScript    string            `yaml:"postScript,omitempty"`
	Tests         string            `yaml:"tests,omitempty"`
}

type collectionFile struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Requests    []requestFile `yaml:"requests"`
}

type environmentFile struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
}

// Load reads a workspace rooted at dir. A missing manifest is an error;
// missing collections/ or environments/ directories are not.
func Load(dir string) (*Workspace, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace manifest: %w", err)
	}

	ws := &Workspace{Root: dir}
	if err := yaml.Unmarshal(data, &ws.Manifest); err != nil {
		return nil, fmt.Errorf("failed to parse workspace manifest: %w", err)
	}

	ws.Collections, err = loadCollections(filepath.Join(dir, collectionsDir))
	if err != nil {
		return nil, err
	}
	ws.Environments, err = loadEnvironments(filepath.Join(dir, environmentsDir))
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Store builds an in-memory variable store from the workspace's
// environments, activating the manifest's activeEnv when set.
func (w *Workspace) Store() (*envstore.Store, error) {
	store := envstore.NewStore()
	for _, env := range w.Environments {
		if err := store.CreateEnvironment(env); err != nil {
			return nil, err
		}
		if env.Name == w.Manifest.ActiveEnv {
			if err := store.Activate(env.ID); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}

// Collection returns the named collection, or nil when absent.
func (w *Workspace) Collection(name string) *model.Collection {
	for _, c := range w.Collections {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Environment returns the named environment, or nil when absent.
func (w *Workspace) Environment(name string) *model.Environment {
	for _, e := range w.Environments {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// SetActiveEnv rewrites the manifest with a new active environment.
func (w *Workspace) SetActiveEnv(name string) error {
	if w.Environment(name) == nil {
		return fmt.Errorf("environment %q not found in workspace", name)
	}
	w.Manifest.ActiveEnv = name
	return writeManifest(w.Root, w.Manifest)
}

func loadCollections(dir string) ([]*model.Collection, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	var collections []*model.Collection
	for _, path := range files {
		c, err := loadCollectionFile(path)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func loadCollectionFile(path string) (*model.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var cf collectionFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse collection %s: %w", filepath.Base(path), err)
	}
	if cf.Name == "" {
		cf.Name = stemOf(path)
	}

	c := model.NewCollection(cf.Name, cf.Description)
	for _, rf := range cf.Requests {
		req := model.NewHttpRequest(c.ID, rf.Name, model.Method(strings.ToUpper(rf.Method)), rf.URL)
		if len(rf.Headers) > 0 {
			req.Headers = rf.Headers
		}
		req.Body = rf.Body
		if rf.BodyType != "" {
			req.BodyType = model.BodyType(rf.BodyType)
		} else if rf.Body != "" {
			req.BodyType = model.BodyJSON
		}
		req.PathVariables = rf.PathVariables
		req.PreScript = rf.PreScript
		req.PostScript = rf.PostScript
		req.Tests = rf.Tests
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("invalid request %q in %s: %w", rf.Name, filepath.Base(path), err)
		}
		c.Requests = append(c.Requests, req)
	}
	return c, nil
}

func loadEnvironments(dir string) ([]*model.Environment, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	var envs []*model.Environment
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read environment file: %w", err)
		}

		var ef environmentFile
		if err := yaml.Unmarshal(data, &ef); err != nil {
			return nil, fmt.Errorf("failed to parse environment %s: %w", filepath.Base(path), err)
		}
		if ef.Name == "" {
			ef.Name = stemOf(path)
		}

		env := model.NewEnvironment(ef.Name)
		for k, v := range ef.Variables {
			env.Variables[k] = v
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// SaveEnvironment writes one environment back to its workspace file.
func SaveEnvironment(dir string, env *model.Environment) error {
	target := filepath.Join(dir, environmentsDir)
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("failed to create environments directory: %w", err)
	}

	data, err := yaml.Marshal(environmentFile{Name: env.Name, Variables: env.Variables})
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}
	return os.WriteFile(filepath.Join(target, env.Name+".yaml"), data, 0644)
}

// SaveCollection writes one collection back to its workspace file.
func SaveCollection(dir string, c *model.Collection) error {
	target := filepath.Join(dir, collectionsDir)
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("failed to create collections directory: %w", err)
	}

	cf := collectionFile{Name: c.Name, Description: c.Description}
	for _, req := range c.Requests {
		cf.Requests = append(cf.Requests, requestFile{
			Name:          req.Name,
			Method:        string(req.Method),
			URL:           req.URL,
			Headers:       req.Headers,
			Body:          req.Body,
			BodyType:      string(req.BodyType),
			PathVariables: req.PathVariables,
			PreScript:     req.PreScript,
			PostScript:    req.PostScript,
			Tests:         req.Tests,
		})
	}

	data, err := yaml.Marshal(cf)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	return os.WriteFile(filepath.Join(target, c.Name+".yaml"), data, 0644)
}

// Init scaffolds an empty workspace at dir: manifest plus the collections
// and environments directories. It refuses to overwrite an existing one.
func Init(dir, name string) error {
	manifest := filepath.Join(dir, manifestFile)
	if _, err := os.Stat(manifest); err == nil {
		return fmt.Errorf("workspace already exists at %s", dir)
	}
	for _, sub := range []string{collectionsDir, environmentsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return writeManifest(dir, Manifest{Name: name})
}

func writeManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0644)
}

func yamlFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func stemOf(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".yaml")
	return strings.TrimSuffix(name, ".yml")
}
