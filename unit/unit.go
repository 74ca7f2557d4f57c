package unit

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"runtime"
	"slices"
	"strings"

	"github.com/cottand/ovld/backend"
	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/internal/log"
	"github.com/cottand/ovld/ovlerr"
	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var logger = log.For(log.SectionUnit)

// Unit is the set of declarations compiled together: every trait they mention and every
// scope they are visible from
type Unit struct {
	Hierarchy *types.Hierarchy
	Registry  *overload.Registry
	Oracle    overload.Oracle
	// Files are the declaration files the unit was loaded from, in load order
	Files []string
}

// Load reads every DeclSuffix file under fsys
func Load(fsys fs.FS) (*Unit, error) {
	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, DeclSuffix) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing declaration files")
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no %s files found", DeclSuffix)
	}
	return LoadFiles(fsys, names...)
}

// LoadFiles reads the named declaration files of fsys. Traits are declared across all
// files before any function is registered, so files may refer to each other's traits.
func LoadFiles(fsys fs.FS, names ...string) (*Unit, error) {
	files := make([]declFile, len(names))
	for i, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		if err := yaml.Unmarshal(data, &files[i]); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", name)
		}
		if files[i].Module == "" {
			files[i].Module = strings.TrimSuffix(path.Base(name), DeclSuffix)
		}
	}

	u := &Unit{
		Hierarchy: types.NewHierarchy(),
		Registry:  overload.NewRegistry(),
		Files:     names,
	}
	for _, f := range files {
		for _, t := range f.Traits {
			u.Hierarchy.Declare(t.Name, t.Parents...)
		}
	}
	for i, f := range files {
		if err := u.register(f); err != nil {
			return nil, errors.Wrapf(err, "%s", names[i])
		}
	}
	u.Oracle = overload.NewHierarchyOracle(u.Hierarchy)
	logger.Debug("loaded unit", "files", len(names), "declarations", u.Registry.Len())
	return u, nil
}

func (u *Unit) register(f declFile) error {
	for _, t := range f.Traits {
		if t.Name == "" {
			return errors.New("trait without a name")
		}
		for _, p := range t.Parents {
			if err := u.checkKnown(&types.Trait{Name: p}); err != nil {
				return errors.Wrapf(err, "parent of %s", t.Name)
			}
		}
	}

	moduleScope := overload.Scope{Kind: overload.ModuleScope, Name: f.Module}
	for _, fn := range f.Functions {
		decl, err := fn.declaration()
		if err != nil {
			return err
		}
		if err := u.checkDeclaration(decl); err != nil {
			return err
		}
		u.Registry.Add(moduleScope, f.Module, decl)
		if !fn.Exported {
			continue
		}
		if f.Exports == "" {
			logger.Warn("exported function in a module without exports", "module", f.Module, "function", fn.Name)
			continue
		}
		u.Registry.Add(overload.Scope{Kind: overload.APIScope, Name: f.Exports}, f.Module, decl)
	}

	for _, t := range f.Traits {
		for _, m := range t.Methods {
			decl, err := m.method(t)
			if err != nil {
				return err
			}
			if err := u.checkDeclaration(decl); err != nil {
				return err
			}
			u.Registry.Add(overload.Scope{Kind: overload.OwnerScope, Name: t.Name}, f.Module, decl)
		}
	}
	return nil
}

func (u *Unit) checkDeclaration(decl *overload.Declaration) error {
	ts := []types.Type{decl.Return}
	for _, p := range decl.Params {
		ts = append(ts, p.Type)
	}
	ts = append(ts, decl.Throws...)
	for _, v := range decl.StaticParams {
		if v.Bound != nil {
			ts = append(ts, v.Bound)
		}
	}
	for _, t := range ts {
		if err := u.checkKnown(t); err != nil {
			return errors.Wrapf(err, "declaration of %s", decl.Name)
		}
	}
	return nil
}

// checkKnown fails when t mentions a trait that no file declares
func (u *Unit) checkKnown(t types.Type) error {
	switch t := t.(type) {
	case *types.Trait:
		if !u.Hierarchy.Known(t.Name) {
			return fmt.Errorf("unknown type %s", t.Name)
		}
		return u.checkAll(t.Args)
	case *types.Tuple:
		return u.checkAll(t.Elems)
	case *types.Arrow:
		if err := u.checkAll(t.Domain); err != nil {
			return err
		}
		return u.checkKnown(t.Range)
	case *types.Union:
		return u.checkAll(t.Elems)
	case *types.Intersection:
		return u.checkAll(t.Elems)
	default:
		return nil
	}
}

func (u *Unit) checkAll(ts []types.Type) error {
	for _, t := range ts {
		if err := u.checkKnown(t); err != nil {
			return err
		}
	}
	return nil
}

// Sets partitions every scope of the registry into overload sets, ordered by scope, name
// and arity. Sets that cannot be formed are reported in the returned errors and left out.
func (u *Unit) Sets() ([]*overload.OverloadSet, *ovlerr.Errors) {
	var sets []*overload.OverloadSet
	var errs *ovlerr.Errors
	for _, scope := range u.Registry.Scopes() {
		parts := overload.Partition(u.Registry.Visible(scope))
		for _, key := range overload.Keys(parts) {
			set, err := overload.NewOverloadSet(key.Name, scope, parts[key.Name][key.Arity])
			if err != nil {
				e, ok := ovlerr.As(err)
				if !ok {
					panic(fmt.Sprintf("forming %s/%d in %v: %v", key.Name, key.Arity, scope, err))
				}
				errs = errs.With(e)
				continue
			}
			sets = append(sets, set)
		}
	}
	return sets, errs
}

// Split splits each set of sets, at most jobs at a time; jobs <= 0 uses GOMAXPROCS.
// Each set is the root of an independent tree, so they never share a split context.
// It returns the sets that split, in their original order, and the failures of the
// others. The error is only set when ctx is done.
func (u *Unit) Split(ctx context.Context, sets []*overload.OverloadSet, jobs int) ([]*overload.OverloadSet, *ovlerr.Errors, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	failures := make([]ovlerr.Error, len(sets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(sets))))
	for i, set := range sets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			_, err := set.Split(u.Oracle)
			if err == nil {
				return nil
			}
			e, ok := ovlerr.As(err)
			if !ok {
				return err
			}
			failures[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var errs *ovlerr.Errors
	ok := make([]*overload.OverloadSet, 0, len(sets))
	for i, set := range sets {
		if failures[i] != nil {
			errs = errs.With(failures[i])
			continue
		}
		ok = append(ok, set)
	}
	logger.Debug("split overload sets", "sets", len(sets), "failed", len(errs.Errors()), "jobs", jobs)
	return ok, errs, nil
}

func (u *Unit) prepare(ctx context.Context, jobs int) ([]*overload.OverloadSet, *ovlerr.Errors, error) {
	sets, errs := u.Sets()
	split, splitErrs, err := u.Split(ctx, sets, jobs)
	if err != nil {
		return nil, nil, err
	}
	return split, errs.Merge(splitErrs), nil
}

// Compile generates a dispatch routine through em for every overload set and every
// overload subset of the unit. A set that fails emits nothing and the others carry on:
// the returned plans belong to the sets that succeeded and the error accumulates the
// failures as an *ovlerr.Errors.
func (u *Unit) Compile(ctx context.Context, em dispatch.Emitter, jobs int) ([]*dispatch.Plan, error) {
	sets, errs, err := u.prepare(ctx, jobs)
	if err != nil {
		return nil, err
	}
	planner := dispatch.NewPlanner(u.Oracle)
	var plans []*dispatch.Plan
	for _, set := range sets {
		generated, err := planner.GenerateAll(set, em)
		if err != nil {
			e, ok := ovlerr.As(err)
			if !ok {
				return nil, err
			}
			errs = errs.With(e)
			continue
		}
		plans = append(plans, generated...)
	}
	return plans, errs.Err()
}

// Describe is Compile into one listing per routine, summarised for display.
// Failures are reported the way Compile reports them.
func (u *Unit) Describe(ctx context.Context, jobs int) ([]backend.RoutinePayload, error) {
	sets, errs, err := u.prepare(ctx, jobs)
	if err != nil {
		return nil, err
	}
	planner := dispatch.NewPlanner(u.Oracle)
	var payloads []backend.RoutinePayload
	for _, set := range sets {
		described, err := u.describe(planner, set)
		if err != nil {
			e, ok := ovlerr.As(err)
			if !ok {
				return nil, err
			}
			errs = errs.With(e)
			continue
		}
		payloads = append(payloads, described...)
	}
	return payloads, errs.Err()
}

func (u *Unit) describe(planner *dispatch.Planner, set *overload.OverloadSet) ([]backend.RoutinePayload, error) {
	res, err := set.Split(u.Oracle)
	if err != nil {
		return nil, err
	}
	routines := slices.Concat([]*overload.OverloadSet{set}, res.SubsetList())
	payloads := make([]backend.RoutinePayload, 0, len(routines))
	for _, s := range routines {
		listing := backend.NewListing()
		plan, err := planner.Generate(s, listing)
		if err != nil {
			return nil, err
		}
		payload, err := backend.Describe(s, plan, listing.Lines(), u.Oracle)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}
