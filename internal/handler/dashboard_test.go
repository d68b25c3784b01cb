package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/service"
)

type fakeDashboardService struct {
	err         error
	recentLimit int
}

func (f *fakeDashboardService) Overview(ctx context.Context) (*service.DashboardOverview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.DashboardOverview{
		Users:      service.UserCounts{Total: 10, Active: 8, Inactive: 2},
		Businesses: service.BusinessCounts{Total: 5, Approved: 3, Pending: 2},
	}, nil
}

func (f *fakeDashboardService) RecentActivity(ctx context.Context, limit int) ([]model.AdminLogWithActor, error) {
	f.recentLimit = limit
	return nil, f.err
}

func (f *fakeDashboardService) BusinessStats(ctx context.Context) (*service.BusinessStats, error) {
	return &service.BusinessStats{Total: 4, Pending: 4, Unverified: 4}, f.err
}

func (f *fakeDashboardService) PartnershipStats(ctx context.Context) (*service.PartnershipStats, error) {
	return &service.PartnershipStats{Active: 1}, f.err
}

func (f *fakeDashboardService) UserStats(ctx context.Context) (*service.UserStats, error) {
	return &service.UserStats{Admin: 2}, f.err
}

func (f *fakeDashboardService) MonthlyStats(ctx context.Context) ([]service.MonthlyStat, error) {
	return []service.MonthlyStat{{Month: "2026-01"}, {Month: "2026-02"}}, f.err
}

func (f *fakeDashboardService) CategoryStats(ctx context.Context) ([]model.CategoryCount, error) {
	return nil, f.err
}

func TestDashboardHandler_Endpoints(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardService{}, asAdmin).Routes()

	cases := []struct {
		path string
		key  string
	}{
		{"/overview", "overview"},
		{"/recent-activity", "logs"},
		{"/business-stats", "businessStats"},
		{"/partnership-stats", "partnershipStats"},
		{"/user-stats", "userStats"},
		{"/monthly-stats", "monthlyStats"},
		{"/category-stats", "categoryStats"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := doRequest(t, h, "GET", tc.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, decodeBody(t, rec), tc.key)
		})
	}
}

func TestDashboardHandler_Overview(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardService{}, asAdmin).Routes()

	rec := doRequest(t, h, "GET", "/overview", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	overview := decodeBody(t, rec)["overview"].(map[string]any)
	users := overview["users"].(map[string]any)
	assert.Equal(t, float64(2), users["inactive"])
	assert.Contains(t, overview, "activity")
}

func TestDashboardHandler_RecentActivityLimit(t *testing.T) {
	t.Run("defaults to 20", func(t *testing.T) {
		svc := &fakeDashboardService{}
		h := NewDashboardHandler(svc, asAdmin).Routes()

		rec := doRequest(t, h, "GET", "/recent-activity", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 20, svc.recentLimit)
		assert.Contains(t, rec.Body.String(), `"logs":[]`)
	})

	t.Run("accepts explicit limit", func(t *testing.T) {
		svc := &fakeDashboardService{}
		h := NewDashboardHandler(svc, asAdmin).Routes()

		rec := doRequest(t, h, "GET", "/recent-activity?limit=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, svc.recentLimit)
	})

	for _, limit := range []string{"0", "101", "abc"} {
		t.Run("rejects "+limit, func(t *testing.T) {
			svc := &fakeDashboardService{}
			h := NewDashboardHandler(svc, asAdmin).Routes()

			rec := doRequest(t, h, "GET", "/recent-activity?limit="+limit, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, svc.recentLimit)
		})
	}
}

func TestDashboardHandler_Failure(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardService{err: errors.New("pool exhausted")}, asAdmin).Routes()

	rec := doRequest(t, h, "GET", "/overview", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pool exhausted")
}

func TestDashboardHandler_RequiresAdmin(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardService{}, authenticateAs(2, model.RoleUser)).Routes()

	rec := doRequest(t, h, "GET", "/overview", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
