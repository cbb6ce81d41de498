// Package catalog answers questions about the saved dashboard collection as
// a whole: listing, deletion with deployment cleanup, and deployment.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	dashboardstore "github.com/dalemusser/stratadash/internal/app/store/dashboards"
	deploymentstore "github.com/dalemusser/stratadash/internal/app/store/deployments"
	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/app/system/normalize"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a dashboard id does not exist.
var ErrNotFound = dashboardstore.ErrNotFound

// Entry is a dashboard together with its deployment state.
type Entry struct {
	models.SavedDashboard
	Deployed bool `json:"deployed"`
}

// Sort orders for List.
const (
	SortUpdated = "updated" // most recently updated first
	SortCreated = "created" // newest first
	SortName    = "name"    // case-insensitive A-Z
)

// Template filters for List.
const (
	TemplatesInclude = ""
	TemplatesOnly    = "only"
	TemplatesExclude = "exclude"
)

// ListOptions narrows and orders List results.
type ListOptions struct {
	Sort      string
	Tag       string
	Templates string
}

// Service coordinates the dashboard and deployment stores.
type Service struct {
	dashboards  *dashboardstore.Store
	deployments *deploymentstore.Store
	docs        docstore.Store
	logger      *zap.Logger
}

// New creates a catalog Service.
func New(dashboards *dashboardstore.Store, deployments *deploymentstore.Store, logger *zap.Logger) *Service {
	return &Service{dashboards: dashboards, deployments: deployments, logger: logger}
}

// UseTransactions groups Delete's two writes into one transaction when docs
// supports it.
func (s *Service) UseTransactions(docs docstore.Store) *Service {
	s.docs = docs
	return s
}

func (s *Service) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.docs == nil {
		return fn(ctx)
	}
	return docstore.RunAtomic(ctx, s.docs, fn)
}

func (s *Service) deployedSet(ctx context.Context) (map[string]bool, error) {
	ids, err := s.deployments.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// List returns dashboards filtered and sorted per opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	all, err := s.dashboards.List(ctx)
	if err != nil {
		return nil, err
	}
	deployed, err := s.deployedSet(ctx)
	if err != nil {
		return nil, err
	}

	tag := normalize.TagKey(opts.Tag)
	out := make([]Entry, 0, len(all))
	for _, d := range all {
		if opts.Templates == TemplatesOnly && !d.IsTemplate {
			continue
		}
		if opts.Templates == TemplatesExclude && d.IsTemplate {
			continue
		}
		if tag != "" && !normalize.HasTag(d.Tags, tag) {
			continue
		}
		out = append(out, Entry{SavedDashboard: d, Deployed: deployed[d.ID]})
	}

	switch opts.Sort {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return normalize.SortKey(out[i].Name) < normalize.SortKey(out[j].Name)
		})
	case SortCreated:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	}
	return out, nil
}

// Get returns one dashboard with its deployment state.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	d, err := s.dashboards.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	deployed, err := s.deployments.Contains(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	return Entry{SavedDashboard: d, Deployed: deployed}, nil
}

// Delete removes a dashboard and, if it was deployed, its deployment.
// Deleting a missing dashboard is not an error.
//
// With UseTransactions on a Mongo store both writes commit together. On
// other backends they run one after the other; if the second write fails
// the stray deployment id is dropped by the next Reconcile pass.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.atomic(ctx, func(ctx context.Context) error {
		if err := s.dashboards.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete dashboard: %w", err)
		}
		if err := s.deployments.Remove(ctx, id); err != nil {
			// Without a transaction the reconcile job removes the dangling id later.
			s.logger.Warn("deployment cleanup failed after dashboard delete",
				zap.String("dashboard_id", id),
				zap.Error(err))
			return fmt.Errorf("failed to undeploy deleted dashboard: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("dashboard deleted", zap.String("dashboard_id", id))
	return nil
}

// Deploy marks an existing dashboard as deployed.
func (s *Service) Deploy(ctx context.Context, id string) error {
	ok, err := s.dashboards.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.deployments.Add(ctx, id); err != nil {
		return fmt.Errorf("failed to deploy dashboard: %w", err)
	}
	s.logger.Info("dashboard deployed", zap.String("dashboard_id", id))
	return nil
}

// Undeploy removes a dashboard from the deployed set. Undeploying a
// dashboard that is not deployed is a no-op.
func (s *Service) Undeploy(ctx context.Context, id string) error {
	if err := s.deployments.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to undeploy dashboard: %w", err)
	}
	s.logger.Info("dashboard undeployed", zap.String("dashboard_id", id))
	return nil
}

// ListDeployed returns the deployed dashboards in deployment order.
// Ids without a matching dashboard are skipped.
func (s *Service) ListDeployed(ctx context.Context) ([]Entry, error) {
	ids, err := s.deployments.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.dashboards.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.SavedDashboard, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, Entry{SavedDashboard: d, Deployed: true})
		}
	}
	return out, nil
}

// Reconcile drops deployed ids whose dashboard no longer exists and
// returns them. It does nothing when the dashboards cannot be read.
func (s *Service) Reconcile(ctx context.Context) ([]string, error) {
	all, err := s.dashboards.Load(ctx)
	if err != nil {
		var serr *dashboardstore.SerializationError
		if errors.As(err, &serr) {
			return nil, nil
		}
		return nil, err
	}
	exists := make(map[string]bool, len(all))
	for _, d := range all {
		exists[d.ID] = true
	}

	ids, err := s.deployments.List(ctx)
	if err != nil {
		return nil, err
	}
	var dangling []string
	for _, id := range ids {
		if !exists[id] {
			dangling = append(dangling, id)
		}
	}
	if len(dangling) == 0 {
		return nil, nil
	}
	if err := s.deployments.Remove(ctx, dangling...); err != nil {
		return nil, err
	}
	return dangling, nil
}
