// Package hosts reconciles a single entry of an /etc/hosts style table.
//
// Matching follows two deliberately different rules: an entry is located
// when either its address or its primary name equals the desired value, but
// it only counts as converged when both columns (and the alias list, if one
// was requested) are equal. A located but unconverged entry is rewritten in
// place instead of duplicated.
package hosts

import (
	"context"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
)

// NewReconciler wires a Reconciler over the host table at path.
func NewReconciler(path string, backup bool, log *logger.Logger) (*reconcile.Reconciler[Desired, Entry], error) {
	file := NewFile(path, backup, log)
	return reconcile.New[Desired, Entry](
		reconcile.ValidatorFunc[Desired](Validate),
		file,
		reconcile.MatcherFunc[Desired, Entry](Match),
		file,
		reconcile.WithLogger(log),
	)
}

// Run performs one hosts reconciliation from caller parameters.
func Run(ctx context.Context, params Params, check bool, log *logger.Logger) (*reconcile.Outcome, error) {
	r, err := NewReconciler(params.Path, params.Backup, log)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, params.Desired(), check)
}
