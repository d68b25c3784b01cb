package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
)

const (
	monthlyStatsMonths = 6
	recentLogsWindow   = 24 * time.Hour
)

type UserCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Recent   int `json:"recent"`
}

type BusinessCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Recent   int `json:"recent"`
}

type PartnershipCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Recent int `json:"recent"`
}

type ActivityCounts struct {
	RecentLogs int `json:"recentLogs"`
}

type DashboardOverview struct {
	Users        UserCounts        `json:"users"`
	Businesses   BusinessCounts    `json:"businesses"`
	Partnerships PartnershipCounts `json:"partnerships"`
	Activity     ActivityCounts    `json:"activity"`
}

type BusinessStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Suspended  int `json:"suspended"`
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
}

type PartnershipStats struct {
	Active          int     `json:"active"`
	Inactive        int     `json:"inactive"`
	Expired         int     `json:"expired"`
	Terminated      int     `json:"terminated"`
	AverageDiscount float64 `json:"averageDiscount"`
}

type UserStats struct {
	Regular    int `json:"regular"`
	Admin      int `json:"admin"`
	SuperAdmin int `json:"superAdmin"`
	Active     int `json:"active"`
	Inactive   int `json:"inactive"`
}

type MonthlyStat struct {
	Month        string `json:"month"`
	Users        int    `json:"users"`
	Businesses   int    `json:"businesses"`
	Partnerships int    `json:"partnerships"`
}

// DashboardService aggregates read-only counts. Each snapshot fans its queries
// out concurrently and fails as a whole if any of them fails.
type DashboardService struct {
	accounts     repository.AccountRepository
	businesses   repository.BusinessRepository
	partnerships repository.PartnershipRepository
	logs         repository.AdminLogRepository
	now          func() time.Time
	location     *time.Location
}

func NewDashboardService(
	accounts repository.AccountRepository,
	businesses repository.BusinessRepository,
	partnerships repository.PartnershipRepository,
	logs repository.AdminLogRepository,
) *DashboardService {
	return &DashboardService{
		accounts:     accounts,
		businesses:   businesses,
		partnerships: partnerships,
		logs:         logs,
		now:          time.Now,
		location:     time.UTC,
	}
}

func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	var o DashboardOverview
	now := s.now()
	weekAgo := now.Add(-recentWindow)
	dayAgo := now.Add(-recentLogsWindow)
	active := true

	err := fanOut(ctx,
		count(&o.Users.Total, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{})
		}),
		count(&o.Users.Active, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{IsActive: &active})
		}),
		count(&o.Users.Recent, func(ctx context.Context) (int, error) {
			return s.accounts.CountCreatedBetween(ctx, weekAgo, now)
		}),
		count(&o.Businesses.Total, func(ctx context.Context) (int, error) {
			return s.businesses.Count(ctx, model.BusinessFilter{})
		}),
		count(&o.Businesses.Approved, func(ctx context.Context) (int, error) {
			return s.businesses.Count(ctx, model.BusinessFilter{Status: model.BusinessStatusApproved})
		}),
		count(&o.Businesses.Recent, func(ctx context.Context) (int, error) {
			return s.businesses.CountCreatedBetween(ctx, weekAgo, now)
		}),
		count(&o.Partnerships.Total, func(ctx context.Context) (int, error) {
			return s.partnerships.Count(ctx, model.PartnershipFilter{})
		}),
		count(&o.Partnerships.Active, func(ctx context.Context) (int, error) {
			return s.partnerships.Count(ctx, model.PartnershipFilter{Status: model.PartnershipStatusActive})
		}),
		count(&o.Partnerships.Recent, func(ctx context.Context) (int, error) {
			return s.partnerships.CountCreatedBetween(ctx, weekAgo, now)
		}),
		count(&o.Activity.RecentLogs, func(ctx context.Context) (int, error) {
			return s.logs.Count(ctx, model.AdminLogFilter{Since: &dayAgo})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard overview: %w", err)
	}

	o.Users.Inactive = o.Users.Total - o.Users.Active
	// Anything not yet approved counts as pending here, including rejected
	// and suspended rows.
	o.Businesses.Pending = o.Businesses.Total - o.Businesses.Approved
	return &o, nil
}

// RecentActivity returns the newest audit entries with their actors.
func (s *DashboardService) RecentActivity(ctx context.Context, limit int) ([]model.AdminLogWithActor, error) {
	page, err := s.logs.List(ctx, model.AdminLogFilter{}, model.ListParams{Page: 1, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return nonNil(page.Items), nil
}

func (s *DashboardService) BusinessStats(ctx context.Context) (*BusinessStats, error) {
	var st BusinessStats
	verified, unverified := true, false
	byStatus := func(status model.BusinessStatus) func(ctx context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			return s.businesses.Count(ctx, model.BusinessFilter{Status: status})
		}
	}

	err := fanOut(ctx,
		count(&st.Pending, byStatus(model.BusinessStatusPending)),
		count(&st.Approved, byStatus(model.BusinessStatusApproved)),
		count(&st.Rejected, byStatus(model.BusinessStatusRejected)),
		count(&st.Suspended, byStatus(model.BusinessStatusSuspended)),
		count(&st.Verified, func(ctx context.Context) (int, error) {
			return s.businesses.Count(ctx, model.BusinessFilter{IsVerified: &verified})
		}),
		count(&st.Unverified, func(ctx context.Context) (int, error) {
			return s.businesses.Count(ctx, model.BusinessFilter{IsVerified: &unverified})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("business stats: %w", err)
	}

	st.Total = st.Pending + st.Approved + st.Rejected + st.Suspended
	return &st, nil
}

func (s *DashboardService) PartnershipStats(ctx context.Context) (*PartnershipStats, error) {
	var st PartnershipStats
	byStatus := func(status model.PartnershipStatus) func(ctx context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			return s.partnerships.Count(ctx, model.PartnershipFilter{Status: status})
		}
	}

	err := fanOut(ctx,
		count(&st.Active, byStatus(model.PartnershipStatusActive)),
		count(&st.Inactive, byStatus(model.PartnershipStatusInactive)),
		count(&st.Expired, byStatus(model.PartnershipStatusExpired)),
		count(&st.Terminated, byStatus(model.PartnershipStatusTerminated)),
		func(ctx context.Context) error {
			avg, err := s.partnerships.AverageDiscount(ctx)
			st.AverageDiscount = avg
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("partnership stats: %w", err)
	}
	return &st, nil
}

func (s *DashboardService) UserStats(ctx context.Context) (*UserStats, error) {
	var st UserStats
	active, inactive := true, false
	byRole := func(role model.Role) func(ctx context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{Role: role})
		}
	}

	err := fanOut(ctx,
		count(&st.Regular, byRole(model.RoleUser)),
		count(&st.Admin, byRole(model.RoleAdmin)),
		count(&st.SuperAdmin, byRole(model.RoleSuperAdmin)),
		count(&st.Active, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{IsActive: &active})
		}),
		count(&st.Inactive, func(ctx context.Context) (int, error) {
			return s.accounts.Count(ctx, model.AccountFilter{IsActive: &inactive})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &st, nil
}

// MonthlyStats counts rows created in each of the trailing calendar months,
// oldest first, the current month included.
func (s *DashboardService) MonthlyStats(ctx context.Context) ([]MonthlyStat, error) {
	windows := monthWindows(s.now(), s.location, monthlyStatsMonths)
	stats := make([]MonthlyStat, len(windows))

	tasks := make([]task, 0, len(windows)*3)
	for i, w := range windows {
		w := w
		stats[i].Month = w.label
		tasks = append(tasks,
			count(&stats[i].Users, func(ctx context.Context) (int, error) {
				return s.accounts.CountCreatedBetween(ctx, w.from, w.to)
			}),
			count(&stats[i].Businesses, func(ctx context.Context) (int, error) {
				return s.businesses.CountCreatedBetween(ctx, w.from, w.to)
			}),
			count(&stats[i].Partnerships, func(ctx context.Context) (int, error) {
				return s.partnerships.CountCreatedBetween(ctx, w.from, w.to)
			}),
		)
	}

	if err := fanOut(ctx, tasks...); err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}
	return stats, nil
}

func (s *DashboardService) CategoryStats(ctx context.Context) ([]model.CategoryCount, error) {
	categories, err := s.businesses.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	return nonNil(categories), nil
}

type monthWindow struct {
	label string
	from  time.Time
	to    time.Time
}

// monthWindows returns n half-open [from, to) month ranges in loc ending with
// the month that contains now.
func monthWindows(now time.Time, loc *time.Location, n int) []monthWindow {
	now = now.In(loc)
	windows := make([]monthWindow, 0, n)
	for i := n - 1; i >= 0; i-- {
		from := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, loc)
		windows = append(windows, monthWindow{
			label: from.Format("2006-01"),
			from:  from,
			to:    from.AddDate(0, 1, 0),
		})
	}
	return windows
}
