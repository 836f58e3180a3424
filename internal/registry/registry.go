// Package registry discovers plugin directories, runs each descriptor through
// load, compatibility check and reference resolution, and tracks which
// plugins are active under a toolkit identifier.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
	"github.com/vrsandeep/plugin-host/internal/util"
)

// KindDuplicateIdentifier is the diagnostic kind for a plugin whose toolkit
// identifier is already held by a directory that sorts before it.
const KindDuplicateIdentifier = "DuplicateIdentifier"

var (
	ErrPluginNotFound      = errors.New("plugin not found")
	ErrDuplicateIdentifier = errors.New("toolkit identifier already registered")
)

// Entry is a snapshot of one plugin directory as the registry last saw it.
type Entry struct {
	ToolkitID  string                 `json:"toolkitIdentifier,omitempty"`
	Name       string                 `json:"name"`
	Version    string                 `json:"version,omitempty"`
	Dir        string                 `json:"path"`
	State      State                  `json:"state"`
	Descriptor *descriptor.Descriptor `json:"descriptor,omitempty"`
	Resolved   *descriptor.Resolved   `json:"resolved,omitempty"`
	ErrorKind  string                 `json:"errorKind,omitempty"`
	Error      string                 `json:"error,omitempty"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// Options configures a Registry.
type Options struct {
	// Root holds one sub-directory per plugin.
	Root string
	// HostSDK is the SDK version this host implements.
	HostSDK descriptor.SDKVersion
	// HostMinimumSDK rejects plugins targeting an older SDK. Zero accepts all.
	HostMinimumSDK descriptor.SDKVersion
}

// Registry owns the set of active plugins.
type Registry struct {
	opts      Options
	reporters []Reporter

	// opMu serializes Scan, Reload and Unload.
	opMu sync.Mutex

	mu       sync.RWMutex
	active   map[string]*Entry // by toolkit identifier
	rejected map[string]*Entry // by plugin directory
	held     map[string]string // unloaded on request: plugin directory -> toolkit identifier
}

// New creates a registry. Nothing is loaded until Scan is called.
func New(opts Options, reporters ...Reporter) *Registry {
	return &Registry{
		opts:      opts,
		reporters: reporters,
		active:    make(map[string]*Entry),
		rejected:  make(map[string]*Entry),
		held:      make(map[string]string),
	}
}

// AddReporter subscribes rep to every outcome produced from now on.
func (r *Registry) AddReporter(rep Reporter) {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.reporters = append(r.reporters, rep)
}

// Root returns the plugins directory.
func (r *Registry) Root() string {
	return r.opts.Root
}

// Scan walks the plugins directory and rebuilds the active set. Directories
// are processed in natural order so the first claimant of an identifier is
// stable across scans. Directories without a descriptor are skipped.
func (r *Registry) Scan(ctx context.Context) (*ScanReport, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if err := util.EnsureDirectory(r.opts.Root); err != nil {
		return nil, fmt.Errorf("failed to prepare plugins directory: %w", err)
	}
	dirEntries, err := os.ReadDir(r.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	util.SortNatural(names)

	report := &ScanReport{ScanID: uuid.NewString(), StartedAt: time.Now()}
	active := make(map[string]*Entry)
	rejected := make(map[string]*Entry)
	seen := make(map[string]bool, len(names))
	claimed := func(id string) (*Entry, bool) {
		e, ok := active[id]
		return e, ok
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(r.opts.Root, name)
		seen[dir] = true
		if _, isHeld := r.held[dir]; isHeld {
			report.Skipped++
			continue
		}

		entry, err := r.runLifecycle(dir, claimed)
		if err != nil {
			if errors.Is(err, descriptor.ErrDescriptorNotFound) {
				log.WithField("plugin_dir", dir).Debug("Skipping directory without descriptor")
				report.Skipped++
				continue
			}
			return nil, err
		}

		if entry.State == StateActive {
			active[entry.ToolkitID] = entry
		} else {
			rejected[dir] = entry
		}
		report.add(newOutcome(report.ScanID, entry))
	}

	activeByDir := make(map[string]*Entry, len(active))
	for _, e := range active {
		activeByDir[e.Dir] = e
	}

	r.mu.Lock()
	for id, prev := range r.active {
		if cur, ok := active[id]; ok && cur.Dir == prev.Dir {
			continue
		}
		if _, ok := rejected[prev.Dir]; ok {
			continue
		}
		gone := *prev
		gone.State = StateUnloaded
		gone.UpdatedAt = time.Now()
		switch cur, ok := activeByDir[prev.Dir]; {
		case ok:
			gone.Error = fmt.Sprintf("toolkit identifier changed to %s", cur.ToolkitID)
		case seen[prev.Dir]:
			gone.Error = "plugin descriptor was removed"
		default:
			gone.Error = "plugin is no longer present"
		}
		report.add(newOutcome(report.ScanID, &gone))
	}
	for dir := range r.held {
		if !seen[dir] {
			delete(r.held, dir)
		}
	}
	r.active = active
	r.rejected = rejected
	r.mu.Unlock()

	report.Duration = time.Since(report.StartedAt)
	log.WithField("scan_id", report.ScanID).Infof("Plugin scan finished: %d active, %d rejected, %d skipped",
		report.Active, report.Rejected, report.Skipped)

	r.notify(report.Outcomes, report)
	return report, nil
}

// runLifecycle takes one plugin directory from unloaded to active or rejected.
// A directory without a descriptor returns the ErrDescriptorNotFound error.
func (r *Registry) runLifecycle(dir string, claimed func(string) (*Entry, bool)) (*Entry, error) {
	lc := &lifecycle{state: StateUnloaded}
	entry := &Entry{Dir: dir, Name: filepath.Base(dir), State: StateUnloaded, UpdatedAt: time.Now()}

	d, err := descriptor.Load(dir)
	if err != nil {
		if errors.Is(err, descriptor.ErrDescriptorNotFound) {
			return nil, err
		}
		return r.reject(lc, entry, err)
	}
	if err := lc.advance(StateLoaded); err != nil {
		return nil, err
	}
	entry.State = StateLoaded
	entry.Descriptor = d
	entry.ToolkitID = d.ToolkitIdentifier
	entry.Name = d.DisplayName()
	if d.Version != nil {
		entry.Version = d.Version.String()
	}

	if err := d.ValidateCompatibility(r.opts.HostSDK); err != nil {
		return r.reject(lc, entry, err)
	}
	if err := d.ValidateTarget(r.opts.HostMinimumSDK); err != nil {
		return r.reject(lc, entry, err)
	}
	resolved, err := d.ResolveReferences(dir)
	if err != nil {
		return r.reject(lc, entry, err)
	}
	if owner, taken := claimed(d.ToolkitIdentifier); taken && owner.Dir != dir {
		return r.reject(lc, entry, fmt.Errorf("%w: %s is provided by %s", ErrDuplicateIdentifier, d.ToolkitIdentifier, owner.Dir))
	}

	if err := lc.advance(StateActive); err != nil {
		return nil, err
	}
	entry.State = StateActive
	entry.Resolved = resolved
	log.WithFields(log.Fields{"plugin_dir": dir, "toolkit_id": entry.ToolkitID}).Info("Plugin activated")
	return entry, nil
}

func (r *Registry) reject(lc *lifecycle, entry *Entry, cause error) (*Entry, error) {
	if err := lc.advance(StateRejected); err != nil {
		return nil, err
	}
	entry.State = StateRejected
	entry.Error = cause.Error()
	if kind, ok := descriptor.KindOf(cause); ok {
		entry.ErrorKind = string(kind)
	} else if errors.Is(cause, ErrDuplicateIdentifier) {
		entry.ErrorKind = KindDuplicateIdentifier
	}
	log.WithFields(log.Fields{
		"plugin_dir": entry.Dir,
		"toolkit_id": entry.ToolkitID,
		"kind":       entry.ErrorKind,
	}).Warnf("Plugin rejected: %v", cause)
	return entry, nil
}

// List returns every active and rejected plugin, ordered by directory.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.active)+len(r.rejected))
	for _, e := range r.active {
		out = append(out, *e)
	}
	for _, e := range r.rejected {
		out = append(out, *e)
	}
	sortEntries(out)
	return out
}

// Diagnostics returns the rejected plugins from the most recent scan or reload.
func (r *Registry) Diagnostics() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.rejected))
	for _, e := range r.rejected {
		out = append(out, *e)
	}
	sortEntries(out)
	return out
}

// Get looks a plugin up by toolkit identifier. Active plugins take precedence
// over rejected ones carrying the same identifier.
func (r *Registry) Get(toolkitID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.active[toolkitID]; ok {
		cp := *e
		return &cp, true
	}
	if e := r.findRejectedLocked(toolkitID); e != nil {
		cp := *e
		return &cp, true
	}
	return nil, false
}

// ActiveCount returns the number of active plugins.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// Unload removes a plugin from the registry. Its directory is ignored by
// later scans until Reload is called for the same identifier.
func (r *Registry) Unload(toolkitID string) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	entry, ok := r.active[toolkitID]
	if ok {
		delete(r.active, toolkitID)
	} else if entry = r.findRejectedLocked(toolkitID); entry != nil {
		delete(r.rejected, entry.Dir)
	}
	if entry == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginNotFound, toolkitID)
	}
	r.held[entry.Dir] = toolkitID
	r.mu.Unlock()

	gone := *entry
	gone.State = StateUnloaded
	gone.UpdatedAt = time.Now()
	log.WithFields(log.Fields{"plugin_dir": gone.Dir, "toolkit_id": toolkitID}).Info("Plugin unloaded")
	r.notify([]Outcome{newOutcome(uuid.NewString(), &gone)}, nil)
	return nil
}

// Reload runs a single plugin directory through the lifecycle again. The
// plugin may be active, rejected or previously unloaded. An unloaded
// directory is preferred, and when it sorts before the directory that took
// over its identifier it claims the identifier back.
func (r *Registry) Reload(toolkitID string) (*Entry, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	var prev, displaced *Entry
	dir := r.heldDirLocked(toolkitID)
	switch {
	case dir != "":
		if e, ok := r.active[toolkitID]; ok && util.NaturalSortLess(dir, e.Dir) {
			displaced = e
			delete(r.active, toolkitID)
		}
	default:
		if e, ok := r.active[toolkitID]; ok {
			prev = e
			delete(r.active, toolkitID)
		} else if e := r.findRejectedLocked(toolkitID); e != nil {
			prev = e
			delete(r.rejected, e.Dir)
		}
		if prev != nil {
			dir = prev.Dir
		}
	}
	if dir == "" {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, toolkitID)
	}
	delete(r.held, dir)
	r.mu.Unlock()

	opID := uuid.NewString()
	var outcomes []Outcome
	if prev != nil {
		gone := *prev
		gone.State = StateUnloaded
		gone.UpdatedAt = time.Now()
		outcomes = append(outcomes, newOutcome(opID, &gone))
	}
	if displaced != nil {
		gone := *displaced
		gone.State = StateUnloaded
		gone.UpdatedAt = time.Now()
		gone.Error = fmt.Sprintf("identifier reclaimed by %s", filepath.Base(dir))
		log.WithFields(log.Fields{"plugin_dir": gone.Dir, "toolkit_id": toolkitID}).Info("Plugin displaced by reloaded directory")
		outcomes = append(outcomes, newOutcome(opID, &gone))
	}

	entry, err := r.runLifecycle(dir, func(id string) (*Entry, bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		e, ok := r.active[id]
		return e, ok
	})
	if err != nil {
		r.notify(outcomes, nil)
		return nil, fmt.Errorf("failed to reload plugin %s: %w", toolkitID, err)
	}

	r.mu.Lock()
	if entry.State == StateActive {
		r.active[entry.ToolkitID] = entry
	} else {
		r.rejected[dir] = entry
	}
	r.mu.Unlock()

	outcomes = append(outcomes, newOutcome(opID, entry))
	r.notify(outcomes, nil)

	cp := *entry
	return &cp, nil
}

// heldDirLocked returns the first unloaded directory, in natural order, that
// held toolkitID.
func (r *Registry) heldDirLocked(toolkitID string) string {
	found := ""
	for d, id := range r.held {
		if id == toolkitID && (found == "" || util.NaturalSortLess(d, found)) {
			found = d
		}
	}
	return found
}

func (r *Registry) findRejectedLocked(toolkitID string) *Entry {
	var found *Entry
	for _, e := range r.rejected {
		if e.ToolkitID != toolkitID {
			continue
		}
		if found == nil || util.NaturalSortLess(e.Dir, found.Dir) {
			found = e
		}
	}
	return found
}

func (r *Registry) notify(outcomes []Outcome, report *ScanReport) {
	for _, o := range outcomes {
		for _, rep := range r.reporters {
			rep.Report(o)
		}
	}
	if report == nil {
		return
	}
	for _, rep := range r.reporters {
		if obs, ok := rep.(ScanObserver); ok {
			obs.ScanCompleted(report)
		}
	}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return util.NaturalSortLess(entries[i].Dir, entries[j].Dir)
	})
}
