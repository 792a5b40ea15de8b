package records

import (
	"context"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardStats counts the four tables concurrently. A failed count is
// logged and reported as zero; it never fails the whole summary.
func (s *Service) DashboardStats(ctx context.Context) DashboardStats {
	var stats DashboardStats
	if s.Degraded() {
		return stats
	}

	var group errgroup.Group
	group.Go(func() error {
		stats.TotalCases = s.countOrZero(ctx, store.TableCases)
		return nil
	})
	group.Go(func() error {
		stats.TotalInquiries = s.countOrZero(ctx, store.TableContactInquiries)
		return nil
	})
	group.Go(func() error {
		stats.TotalTrademarks = s.countOrZero(ctx, store.TableTrademarkApplications)
		return nil
	})
	group.Go(func() error {
		stats.TotalBlogs = s.countOrZero(ctx, store.TableBlogPosts)
		return nil
	})
	_ = group.Wait()

	return stats
}

func (s *Service) countOrZero(ctx context.Context, table string) int64 {
	count, err := s.store.Count(ctx, table)
	if err != nil {
		s.logError(opCountRows, reasonCountFailed, err, zap.String("table", table))
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}
