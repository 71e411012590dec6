package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS implements types.FS with in-memory storage. It supports
// per-path error injection so tests can simulate unreadable files and
// failed writes without real filesystem permissions.
type MemoryFS struct {
	mu    sync.RWMutex
	nodes map[string]*fileNode
}

// fileNode represents a file or directory in memory
type fileNode struct {
	name     string
	mode     os.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	children map[string]*fileNode

	// readErr/writeErr are injected failures for this path
	readErr  error
	writeErr error
}

// NewMemoryFS creates a new in-memory filesystem
func NewMemoryFS() *MemoryFS {
	root := &fileNode{
		name:     "/",
		mode:     0755 | os.ModeDir,
		modTime:  time.Now(),
		isDir:    true,
		children: make(map[string]*fileNode),
	}

	return &MemoryFS{
		nodes: map[string]*fileNode{"/": root},
	}
}

func normalizePath(path string) string {
	if !filepath.IsAbs(path) {
		path = "/" + path
	}
	return filepath.Clean(path)
}

func (m *MemoryFS) getNode(path string) (*fileNode, error) {
	path = normalizePath(path)
	node, exists := m.nodes[path]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, nil
}

// WithReadError makes every read of path fail with err. Creates the file
// (empty) if it does not exist yet so it still shows up in directory
// listings, like a file with revoked permissions would.
func (m *MemoryFS) WithReadError(path string, err error) *MemoryFS {
	if _, getErr := m.Stat(path); getErr != nil {
		_ = m.WriteFile(path, nil, 0644)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if node, getErr := m.getNode(path); getErr == nil {
		node.readErr = err
	}
	return m
}

// WithWriteError makes every write of path fail with err.
func (m *MemoryFS) WithWriteError(path string, err error) *MemoryFS {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = normalizePath(path)
	node, exists := m.nodes[path]
	if !exists {
		node = &fileNode{name: filepath.Base(path)}
		m.nodes[path] = node
	}
	node.writeErr = err
	return m
}

// Stat returns file info
func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	return &fileInfo{node: node, name: filepath.Base(normalizePath(name))}, nil
}

// Lstat behaves like Stat; MemoryFS has no symlinks.
func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	return m.Stat(name)
}

// ReadFile reads the entire file content
func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if node.readErr != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: node.readErr}
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errors.New("is a directory")}
	}

	content := make([]byte, len(node.content))
	copy(content, node.content)
	return content, nil
}

// WriteFile writes data to a file, creating it and any parents
func (m *MemoryFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := normalizePath(name)

	if existing, ok := m.nodes[path]; ok && existing.writeErr != nil {
		return &fs.PathError{Op: "write", Path: name, Err: existing.writeErr}
	}

	if err := m.mkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	parent := m.nodes[filepath.Dir(path)]

	filename := filepath.Base(path)
	node := &fileNode{
		name:    filename,
		mode:    perm,
		modTime: time.Now(),
		content: append([]byte(nil), data...),
	}
	if existing, ok := m.nodes[path]; ok {
		node.readErr = existing.readErr
		node.writeErr = existing.writeErr
	}

	parent.children[filename] = node
	m.nodes[path] = node
	return nil
}

// MkdirAll creates a directory and all necessary parents
func (m *MemoryFS) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mkdirAll(path, perm)
}

// mkdirAll is the internal implementation without locking
func (m *MemoryFS) mkdirAll(path string, perm os.FileMode) error {
	path = normalizePath(path)

	if node, ok := m.nodes[path]; ok {
		if !node.isDir {
			return &fs.PathError{Op: "mkdir", Path: path, Err: errors.New("file exists")}
		}
		return nil
	}

	parts := strings.Split(path, "/")
	current := "/"
	currentNode := m.nodes["/"]

	for _, part := range parts {
		if part == "" {
			continue
		}
		next := filepath.Join(current, part)

		if child, exists := currentNode.children[part]; exists {
			if !child.isDir {
				return &fs.PathError{Op: "mkdir", Path: next, Err: errors.New("not a directory")}
			}
			currentNode = child
			current = next
			continue
		}

		newDir := &fileNode{
			name:     part,
			mode:     perm | os.ModeDir,
			modTime:  time.Now(),
			isDir:    true,
			children: make(map[string]*fileNode),
		}
		currentNode.children[part] = newDir
		m.nodes[next] = newDir

		currentNode = newDir
		current = next
	}
	return nil
}

// ReadDir reads a directory and returns its entries sorted by name
func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if node.readErr != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: node.readErr}
	}
	if !node.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}

	entries := make([]fs.DirEntry, 0, len(node.children))
	for childName, child := range node.children {
		entries = append(entries, &dirEntry{
			name: childName,
			info: &fileInfo{node: child, name: childName},
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Remove removes a file or empty directory
func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := normalizePath(name)
	node, err := m.getNode(path)
	if err != nil {
		return err
	}
	if node.isDir && len(node.children) > 0 {
		return &fs.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
	}

	if parent, ok := m.nodes[filepath.Dir(path)]; ok && parent.isDir {
		delete(parent.children, filepath.Base(path))
	}
	delete(m.nodes, path)
	return nil
}

// Rename moves a file to a new path, replacing any existing file there
func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldp := normalizePath(oldpath)
	newp := normalizePath(newpath)

	node, err := m.getNode(oldp)
	if err != nil {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}

	if err := m.mkdirAll(filepath.Dir(newp), 0755); err != nil {
		return err
	}

	if oldParent, ok := m.nodes[filepath.Dir(oldp)]; ok && oldParent.isDir {
		delete(oldParent.children, filepath.Base(oldp))
	}
	delete(m.nodes, oldp)

	node.name = filepath.Base(newp)
	m.nodes[newp] = node
	m.nodes[filepath.Dir(newp)].children[node.name] = node
	return nil
}

// SetModTime overrides a file's modification time; tests use this to
// build fingerprints with controlled timestamps.
func (m *MemoryFS) SetModTime(name string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, err := m.getNode(name)
	if err != nil {
		return err
	}
	node.modTime = t
	return nil
}

// fileInfo implements fs.FileInfo
type fileInfo struct {
	node *fileNode
	name string
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return int64(len(fi.node.content)) }
func (fi *fileInfo) Mode() os.FileMode  { return fi.node.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.node.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.node.isDir }
func (fi *fileInfo) Sys() interface{}   { return fi.node }

// dirEntry implements fs.DirEntry
type dirEntry struct {
	name string
	info fs.FileInfo
}

func (de *dirEntry) Name() string               { return de.name }
func (de *dirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *dirEntry) Type() os.FileMode          { return de.info.Mode().Type() }
func (de *dirEntry) Info() (fs.FileInfo, error) { return de.info, nil }
