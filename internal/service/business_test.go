package service

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/storage"
)

type businessFixture struct {
	svc          *BusinessService
	sql          sqlmock.Sqlmock
	businesses   *mockBusinessRepo
	images       *mockImageRepo
	partnerships *mockPartnershipRepo
	store        *mockImageStorage
	recorder     *recorderSpy
}

func newBusinessFixture(t *testing.T) *businessFixture {
	t.Helper()
	db, sqlMock := newTxDB(t)
	f := &businessFixture{
		sql:          sqlMock,
		businesses:   new(mockBusinessRepo),
		images:       new(mockImageRepo),
		partnerships: new(mockPartnershipRepo),
		store:        new(mockImageStorage),
		recorder:     &recorderSpy{},
	}
	f.svc = NewBusinessService(db, f.businesses, f.images, f.partnerships, f.store, f.recorder)
	return f
}

func TestBusinessService_List(t *testing.T) {
	ctx := context.Background()
	f := newBusinessFixture(t)
	params := model.ListParams{Page: 1, Limit: 20}
	filter := model.BusinessFilter{Status: model.BusinessStatusApproved}

	f.businesses.On("List", ctx, filter, params).Return(&model.Page[model.BusinessListItem]{
		Items: []model.BusinessListItem{
			{Business: model.Business{ID: 1}},
			{Business: model.Business{ID: 2}},
		},
		Total: 2,
	}, nil)
	f.images.On("ListByBusinessIDs", ctx, []int64{1, 2}).Return(map[int64][]model.BusinessImage{
		1: {{ID: 10, BusinessID: 1, Order: 0}, {ID: 11, BusinessID: 1, Order: 1}},
	}, nil)

	page, err := f.svc.List(ctx, filter, params)
	require.NoError(t, err)
	assert.Len(t, page.Items[0].Images, 2)
	assert.NotNil(t, page.Items[1].Images)
	assert.Empty(t, page.Items[1].Images)
}

func TestBusinessService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches images and partnerships", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.businesses.On("FindByID", ctx, int64(1)).Return(&model.Business{ID: 1, Name: "Cafe"}, nil)
		f.images.On("ListByBusiness", ctx, int64(1)).Return([]model.BusinessImage{{ID: 10}}, nil)
		f.partnerships.On("ListByBusiness", ctx, int64(1)).Return([]model.Partnership{{ID: 20}}, nil)

		business, err := f.svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, business.Images, 1)
		assert.Len(t, business.Partnerships, 1)
	})

	t.Run("missing business is not found", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.businesses.On("FindByID", ctx, int64(1)).Return(nil, nil)

		_, err := f.svc.Get(ctx, 1)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestBusinessService_CreateUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("create audits", func(t *testing.T) {
		f := newBusinessFixture(t)
		params := model.CreateBusinessParams{Name: "Cafe", Address: "Main St", Category: "food"}
		f.businesses.On("Create", ctx, params).Return(&model.Business{ID: 3, Name: "Cafe"}, nil)

		business, err := f.svc.Create(ctx, params, audit.Entry{ActorID: audit.Int64(1)})
		require.NoError(t, err)
		assert.NotNil(t, business.Images)
		require.Len(t, f.recorder.entries, 1)
		assert.Equal(t, "Created business: Cafe", f.recorder.entries[0].Details)
		assert.Equal(t, int64(3), *f.recorder.entries[0].ResourceID)
	})

	t.Run("update of a missing business is not found", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.businesses.On("Update", ctx, int64(3), mock.Anything).Return(nil, nil)

		_, err := f.svc.Update(ctx, 3, model.UpdateBusinessParams{}, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		assert.Empty(t, f.recorder.entries)
	})

	t.Run("update returns images and audits", func(t *testing.T) {
		f := newBusinessFixture(t)
		name := "Cafe 2"
		f.businesses.On("Update", ctx, int64(3), model.UpdateBusinessParams{Name: &name}).
			Return(&model.Business{ID: 3, Name: name}, nil)
		f.images.On("ListByBusiness", ctx, int64(3)).Return([]model.BusinessImage{{ID: 1}}, nil)

		business, err := f.svc.Update(ctx, 3, model.UpdateBusinessParams{Name: &name}, audit.Entry{})
		require.NoError(t, err)
		assert.Len(t, business.Images, 1)
		assert.Equal(t, "Updated business: Cafe 2", f.recorder.entries[0].Details)
	})
}

func TestBusinessService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes files after the row", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.businesses.On("FindByID", ctx, int64(3)).Return(&model.Business{ID: 3, Name: "Cafe"}, nil)
		f.images.On("ListByBusiness", ctx, int64(3)).Return([]model.BusinessImage{
			{ImageURL: "/uploads/businesses/a.png"},
			{ImageURL: "/uploads/businesses/b.png"},
		}, nil)
		f.businesses.On("Delete", ctx, int64(3)).Return(true, nil)
		f.store.On("Remove", "/uploads/businesses/a.png").Return(nil)
		f.store.On("Remove", "/uploads/businesses/b.png").Return(errors.New("permission denied"))

		require.NoError(t, f.svc.Delete(ctx, 3, audit.Entry{}))
		f.store.AssertNumberOfCalls(t, "Remove", 2)
		require.Len(t, f.recorder.entries, 1)
		assert.Equal(t, model.ActionDelete, f.recorder.entries[0].Action)
		assert.Equal(t, "Deleted business: Cafe", f.recorder.entries[0].Details)
	})

	t.Run("missing business is not found", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.businesses.On("FindByID", ctx, int64(3)).Return(nil, nil)

		err := f.svc.Delete(ctx, 3, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestBusinessService_UploadImages(t *testing.T) {
	ctx := context.Background()
	files := []*multipart.FileHeader{{Filename: "a.png"}, {Filename: "b.jpg"}}
	saved := []storage.SavedImage{
		{URL: "/uploads/businesses/images-1.png", OriginalName: "a.png"},
		{URL: "/uploads/businesses/images-2.jpg", OriginalName: "b.jpg"},
	}

	t.Run("appends every image in one transaction", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.store.On("Validate", files).Return(nil)
		f.store.On("Save", files).Return(saved, nil)
		f.sql.ExpectBegin()
		f.businesses.On("FindByIDForUpdate", ctx, int64(3)).Return(&model.Business{ID: 3, Name: "Cafe"}, nil)
		f.images.On("Append", ctx, model.CreateBusinessImageParams{BusinessID: 3, ImageURL: saved[0].URL, AltText: strPtr("a.png")}).
			Return(&model.BusinessImage{ID: 1, Order: 0, ImageURL: saved[0].URL}, nil)
		f.images.On("Append", ctx, model.CreateBusinessImageParams{BusinessID: 3, ImageURL: saved[1].URL, AltText: strPtr("b.jpg")}).
			Return(&model.BusinessImage{ID: 2, Order: 1, ImageURL: saved[1].URL}, nil)
		f.sql.ExpectCommit()

		images, err := f.svc.UploadImages(ctx, 3, files, audit.Entry{})
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, 0, images[0].Order)
		assert.Equal(t, 1, images[1].Order)
		f.store.AssertNotCalled(t, "RemoveAll", mock.Anything)

		require.Len(t, f.recorder.entries, 1)
		got := f.recorder.entries[0]
		assert.Equal(t, model.ActionUploadImages, got.Action)
		assert.Equal(t, model.ResourceBusiness, got.Resource)
		assert.Equal(t, "Uploaded 2 images for business: Cafe", got.Details)
	})

	t.Run("invalid files are rejected before anything is written", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.store.On("Validate", files).Return(apperrors.ValidationError("bad file"))

		_, err := f.svc.UploadImages(ctx, 3, files, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
		f.store.AssertNotCalled(t, "Save", mock.Anything)
	})

	t.Run("missing business rolls back and removes files", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.store.On("Validate", files).Return(nil)
		f.store.On("Save", files).Return(saved, nil)
		f.sql.ExpectBegin()
		f.businesses.On("FindByIDForUpdate", ctx, int64(3)).Return(nil, nil)
		f.sql.ExpectRollback()
		f.store.On("RemoveAll", saved).Return()

		_, err := f.svc.UploadImages(ctx, 3, files, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		f.store.AssertCalled(t, "RemoveAll", saved)
		assert.Empty(t, f.recorder.entries)
	})

	t.Run("insert failure rolls back and removes files", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.store.On("Validate", files).Return(nil)
		f.store.On("Save", files).Return(saved, nil)
		f.sql.ExpectBegin()
		f.businesses.On("FindByIDForUpdate", ctx, int64(3)).Return(&model.Business{ID: 3}, nil)
		f.images.On("Append", ctx, mock.Anything).Return(&model.BusinessImage{ID: 1}, nil).Once()
		f.images.On("Append", ctx, mock.Anything).Return(nil, errors.New("deadlock")).Once()
		f.sql.ExpectRollback()
		f.store.On("RemoveAll", saved).Return()

		_, err := f.svc.UploadImages(ctx, 3, files, audit.Entry{})
		require.Error(t, err)
		f.store.AssertCalled(t, "RemoveAll", saved)
	})
}

func TestBusinessService_DeleteImage(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes row, compacts and removes file", func(t *testing.T) {
		f := newBusinessFixture(t)
		image := &model.BusinessImage{ID: 10, BusinessID: 3, Order: 1, ImageURL: "/uploads/businesses/x.png"}
		f.sql.ExpectBegin()
		f.images.On("FindByID", ctx, int64(3), int64(10)).Return(image, nil)
		f.images.On("Delete", ctx, image).Return(nil)
		f.sql.ExpectCommit()
		f.store.On("Remove", "/uploads/businesses/x.png").Return(nil)

		require.NoError(t, f.svc.DeleteImage(ctx, 3, 10, audit.Entry{}))
		require.Len(t, f.recorder.entries, 1)
		got := f.recorder.entries[0]
		assert.Equal(t, model.ActionDeleteImage, got.Action)
		assert.Equal(t, model.ResourceBusinessImage, got.Resource)
		assert.Equal(t, int64(10), *got.ResourceID)
		assert.Equal(t, "Deleted image for business ID: 3", got.Details)
	})

	t.Run("image of another business is not found", func(t *testing.T) {
		f := newBusinessFixture(t)
		f.sql.ExpectBegin()
		f.images.On("FindByID", ctx, int64(3), int64(10)).Return(nil, nil)
		f.sql.ExpectRollback()

		err := f.svc.DeleteImage(ctx, 3, 10, audit.Entry{})
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		f.store.AssertNotCalled(t, "Remove", mock.Anything)
	})
}
