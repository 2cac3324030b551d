// Package rewrite computes minimal text edits that turn a parsed source buffer
// into the text of a modified syntax tree. Changes are recorded as events
// against the original tree; unchanged regions, comments and formatting are
// preserved byte for byte and only changed regions are synthesized.
package rewrite

import (
	"context"
	"errors"

	"github.com/kpumuk/thrift-rewrite/internal/edit"
	"github.com/kpumuk/thrift-rewrite/internal/logging"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// Input is everything Rewrite reads. Infos and Ranges are optional.
type Input struct {
	Tree    *syntax.Tree
	Layouts *Layouts
	Store   *Store
	Infos   *Annotations
	Options Options
	// Ranges resolves extended node ranges. DefaultRanges is used when nil.
	Ranges RangeResolver
}

// Rewrite returns the edit tree that turns in.Tree.Source into the text of the
// tree with the events of in.Store applied. The root is a Multi edit; when
// nothing changed it has no children. On error no edit tree is returned.
func Rewrite(ctx context.Context, in Input) (*edit.Edit, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContext(ctx)
	switch {
	case in.Tree == nil:
		return nil, contractf("Rewrite", syntax.NoNode, "nil tree")
	case in.Store == nil:
		return nil, contractf("Rewrite", syntax.NoNode, "nil event store")
	case in.Layouts == nil:
		return nil, contractf("Rewrite", syntax.NoNode, "nil layouts")
	case in.Store.Tree() != in.Tree:
		return nil, contractf("Rewrite", syntax.NoNode, "event store belongs to another tree")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Store.Validate(); err != nil {
		logger.Debug("rewrite rejected", logging.FieldError, err)
		return nil, err
	}
	opts, err := in.Options.normalize(in.Tree.Source)
	if err != nil {
		return nil, errors.Join(contractf("Rewrite", syntax.NoNode, "invalid options"), err)
	}
	infos := in.Infos
	if infos == nil {
		infos = NewAnnotations()
	}
	ranges := in.Ranges
	if ranges == nil {
		ranges = NewDefaultRanges(in.Tree, infos)
	}

	logger.Debug("rewrite start",
		logging.FieldPath, in.Tree.URI,
		logging.FieldEvents, in.Store.Len(),
		logging.FieldSources, len(infos.CopySources()),
		logging.FieldTracked, len(infos.TrackedNodes()))
	root, err := newAnalyzer(ctx, in, opts, infos, ranges).run()
	if err != nil {
		logger.Debug("rewrite aborted", logging.FieldPath, in.Tree.URI, logging.FieldError, err)
		return nil, err
	}
	logger.Debug("rewrite done", logging.FieldPath, in.Tree.URI, logging.FieldEdits, root.Count())
	return root, nil
}
