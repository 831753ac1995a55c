package expense_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

var day = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

func TestService_Create(t *testing.T) {
	type args struct {
		userID string
		params expense.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *expense.MockRepository)
		wantErr   bool
		wantValid bool
	}

	valid := expense.CreateParams{
		Title:    "Lunch",
		Amount:   decimal.RequireFromString("12.50"),
		Category: expense.CategoryFood,
		Date:     day,
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{userID: "u1", params: valid},
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().
					CreateExpense(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e *expense.Expense) error {
						e.ID = "doc-1"
						e.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name:      "MissingUser",
			args:      args{params: valid},
			wantErr:   true,
			wantValid: true,
		},
		{
			name: "MissingAmount",
			args: args{userID: "u1", params: expense.CreateParams{
				Category: expense.CategoryFood,
				Date:     day,
			}},
			wantErr:   true,
			wantValid: true,
		},
		{
			name: "UnknownCategory",
			args: args{userID: "u1", params: expense.CreateParams{
				Amount:   decimal.NewFromInt(3),
				Category: "Pets",
				Date:     day,
			}},
			wantErr:   true,
			wantValid: true,
		},
		{
			name: "MissingDate",
			args: args{userID: "u1", params: expense.CreateParams{
				Amount:   decimal.NewFromInt(3),
				Category: expense.CategoryOther,
			}},
			wantErr:   true,
			wantValid: true,
		},
		{
			name: "RepoError",
			args: args{userID: "u1", params: valid},
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().
					CreateExpense(gomock.Any(), gomock.Any()).
					Return(errs.Repository("creating expense", errors.New("network down")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := expense.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := expense.NewService(repo)
			got, err := svc.Create(context.Background(), tt.args.userID, tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				assert.Equal(t, tt.wantValid, errs.IsValidation(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "doc-1", got.ID)
			assert.Equal(t, "u1", got.UserID)
			assert.True(t, got.Synced)
		})
	}
}

func TestService_Totals(t *testing.T) {
	exps := []*expense.Expense{
		{ID: "1", UserID: "u1", Amount: decimal.NewFromInt(120), Category: expense.CategoryFood},
		{ID: "2", UserID: "u1", Amount: decimal.NewFromInt(-80), Category: expense.CategoryFood},
		{ID: "3", UserID: "u1", Amount: decimal.RequireFromString("15.25"), Category: expense.CategoryTransport},
		{ID: "4", UserID: "u1", Amount: decimal.RequireFromString("4.75"), Category: expense.CategoryOther},
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().ListExpenses(gomock.Any(), "u1").Return(exps, nil).Times(2)

	svc := expense.NewService(repo)

	total, err := svc.TotalByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(220).Equal(total), "total = %s", total)

	byCat, err := svc.TotalByCategory(context.Background(), "u1")
	require.NoError(t, err)

	assert.Len(t, byCat, 3)
	assert.True(t, decimal.NewFromInt(200).Equal(byCat[expense.CategoryFood]))
	assert.NotContains(t, byCat, expense.CategoryBills)

	sum := decimal.Zero
	for _, v := range byCat {
		sum = sum.Add(v)
	}

	assert.True(t, total.Equal(sum))
}

func TestService_TotalsRepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().ListExpenses(gomock.Any(), "u1").Return(nil, errors.New("boom"))

	_, err := expense.NewService(repo).TotalByUser(context.Background(), "u1")
	assert.Error(t, err)
}

func TestService_Update(t *testing.T) {
	type testCase struct {
		name      string
		params    expense.UpdateParams
		setupMock func(m *expense.MockRepository)
		wantErr   error
		check     func(t *testing.T, e *expense.Expense)
	}

	existing := func() *expense.Expense {
		return &expense.Expense{
			ID:       "e1",
			UserID:   "u1",
			Title:    "Taxi",
			Amount:   decimal.NewFromInt(20),
			Category: expense.CategoryTransport,
			Date:     day,
			Synced:   true,
		}
	}

	tests := []testCase{
		{
			name: "Success",
			params: expense.UpdateParams{
				Title:  new("Airport taxi"),
				Amount: new(decimal.NewFromInt(35)),
			},
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().GetExpense(gomock.Any(), "e1").Return(existing(), nil)
				m.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, e *expense.Expense) {
				assert.Equal(t, "Airport taxi", e.Title)
				assert.True(t, decimal.NewFromInt(35).Equal(e.Amount))
				assert.Equal(t, expense.CategoryTransport, e.Category)
			},
		},
		{
			name:   "NotFound",
			params: expense.UpdateParams{Title: new("x")},
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().GetExpense(gomock.Any(), "e1").Return(nil, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:   "InvalidCategory",
			params: expense.UpdateParams{Category: new(expense.Category("Pets"))},
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().GetExpense(gomock.Any(), "e1").Return(existing(), nil)
			},
			wantErr: &errs.ValidationError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := expense.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := expense.NewService(repo).Update(context.Background(), "e1", tt.params)

			if tt.wantErr != nil {
				var ve *errs.ValidationError
				if errors.As(tt.wantErr, &ve) {
					assert.True(t, errs.IsValidation(err))
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().DeleteExpense(gomock.Any(), "missing").Return(errs.ErrNotFound)

	err := expense.NewService(repo).Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestParseCategory(t *testing.T) {
	c, err := expense.ParseCategory(" food ")
	require.NoError(t, err)
	assert.Equal(t, expense.CategoryFood, c)

	_, err = expense.ParseCategory("pets")
	assert.Error(t, err)

	assert.Len(t, expense.Categories(), 8)
}

func TestDraftRoundTrip(t *testing.T) {
	d := expense.NewDraft("u1", expense.CreateParams{
		Title:    "Bus",
		Amount:   decimal.RequireFromString("2.40"),
		Category: expense.CategoryTransport,
		Date:     day,
	}, day)

	assert.NotEmpty(t, d.ID)
	assert.False(t, d.Synced)

	data, err := expense.MarshalDraft(d)
	require.NoError(t, err)

	got, err := expense.UnmarshalDraft(data)
	require.NoError(t, err)

	assert.Equal(t, d.ID, got.ID)
	assert.True(t, d.Amount.Equal(got.Amount))
	assert.True(t, d.Date.Equal(got.Date))
	assert.Equal(t, d.CreateParams().Category, got.Category)
}
