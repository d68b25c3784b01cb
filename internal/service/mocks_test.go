package service

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
	"github.com/bizdir/admin-server/internal/storage"
)

// Transactional repositories hand back themselves from WithTx, so the mocks
// see every call regardless of whether it ran inside a transaction.

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) List(ctx context.Context, filter model.AccountFilter, params model.ListParams) (*model.Page[model.AccountListItem], error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.AccountListItem]), args.Error(1)
}

func (m *mockAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, id int64, params model.UpdateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) SetActive(ctx context.Context, id int64, active bool) (*model.Account, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Count(ctx context.Context, filter model.AccountFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	args := m.Called(ctx, from, to)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

type mockBusinessRepo struct {
	mock.Mock
}

func (m *mockBusinessRepo) FindByID(ctx context.Context, id int64) (*model.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *mockBusinessRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *mockBusinessRepo) List(ctx context.Context, filter model.BusinessFilter, params model.ListParams) (*model.Page[model.BusinessListItem], error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.BusinessListItem]), args.Error(1)
}

func (m *mockBusinessRepo) Create(ctx context.Context, params model.CreateBusinessParams) (*model.Business, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *mockBusinessRepo) Update(ctx context.Context, id int64, params model.UpdateBusinessParams) (*model.Business, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *mockBusinessRepo) UpdateStatus(ctx context.Context, id int64, status model.BusinessStatus, reason *string) (*model.Business, error) {
	args := m.Called(ctx, id, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *mockBusinessRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockBusinessRepo) Count(ctx context.Context, filter model.BusinessFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockBusinessRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	args := m.Called(ctx, from, to)
	return args.Int(0), args.Error(1)
}

func (m *mockBusinessRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategoryCount), args.Error(1)
}

func (m *mockBusinessRepo) WithTx(tx *sqlx.Tx) repository.BusinessRepository {
	return m
}

type mockImageRepo struct {
	mock.Mock
}

func (m *mockImageRepo) ListByBusiness(ctx context.Context, businessID int64) ([]model.BusinessImage, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BusinessImage), args.Error(1)
}

func (m *mockImageRepo) ListByBusinessIDs(ctx context.Context, businessIDs []int64) (map[int64][]model.BusinessImage, error) {
	args := m.Called(ctx, businessIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]model.BusinessImage), args.Error(1)
}

func (m *mockImageRepo) FindByID(ctx context.Context, businessID, imageID int64) (*model.BusinessImage, error) {
	args := m.Called(ctx, businessID, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BusinessImage), args.Error(1)
}

func (m *mockImageRepo) Append(ctx context.Context, params model.CreateBusinessImageParams) (*model.BusinessImage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BusinessImage), args.Error(1)
}

func (m *mockImageRepo) Delete(ctx context.Context, image *model.BusinessImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *mockImageRepo) WithTx(tx *sqlx.Tx) repository.BusinessImageRepository {
	return m
}

type mockPartnershipRepo struct {
	mock.Mock
}

func (m *mockPartnershipRepo) FindByID(ctx context.Context, id int64) (*model.Partnership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Partnership), args.Error(1)
}

func (m *mockPartnershipRepo) List(ctx context.Context, filter model.PartnershipFilter, params model.ListParams) (*model.Page[model.Partnership], error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.Partnership]), args.Error(1)
}

func (m *mockPartnershipRepo) ListByBusiness(ctx context.Context, businessID int64) ([]model.Partnership, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Partnership), args.Error(1)
}

func (m *mockPartnershipRepo) Create(ctx context.Context, params model.CreatePartnershipParams) (*model.Partnership, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Partnership), args.Error(1)
}

func (m *mockPartnershipRepo) Update(ctx context.Context, id int64, params model.UpdatePartnershipParams) (*model.Partnership, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Partnership), args.Error(1)
}

func (m *mockPartnershipRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPartnershipRepo) ExpireEnded(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockPartnershipRepo) Count(ctx context.Context, filter model.PartnershipFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockPartnershipRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	args := m.Called(ctx, from, to)
	return args.Int(0), args.Error(1)
}

func (m *mockPartnershipRepo) AverageDiscount(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockPartnershipRepo) WithTx(tx *sqlx.Tx) repository.PartnershipRepository {
	return m
}

type mockAdminLogRepo struct {
	mock.Mock
}

func (m *mockAdminLogRepo) Create(ctx context.Context, params model.CreateAdminLogParams) (*model.AdminLog, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminLog), args.Error(1)
}

func (m *mockAdminLogRepo) List(ctx context.Context, filter model.AdminLogFilter, params model.ListParams) (*model.Page[model.AdminLogWithActor], error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.AdminLogWithActor]), args.Error(1)
}

func (m *mockAdminLogRepo) Count(ctx context.Context, filter model.AdminLogFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// recorderSpy keeps every audit entry in call order.
type recorderSpy struct {
	entries []audit.Entry
}

func (r *recorderSpy) Record(ctx context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

type mockImageStorage struct {
	mock.Mock
}

func (m *mockImageStorage) Validate(files []*multipart.FileHeader) error {
	return m.Called(files).Error(0)
}

func (m *mockImageStorage) Save(files []*multipart.FileHeader) ([]storage.SavedImage, error) {
	args := m.Called(files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.SavedImage), args.Error(1)
}

func (m *mockImageStorage) RemoveAll(images []storage.SavedImage) {
	m.Called(images)
}

func (m *mockImageStorage) Remove(imageURL string) error {
	return m.Called(imageURL).Error(0)
}

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mockDB.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mockDB
}

func strPtr(s string) *string {
	return &s
}
