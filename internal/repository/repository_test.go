package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var countryVATColumns = []string{"id", "country", "vat_rate", "is_active", "created_at", "updated_at"}

func TestCountryVATRepository_ListActive(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "country_vat" WHERE is_active = \$1 ORDER BY country ASC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(countryVATColumns).
			AddRow(uuid.New().String(), "Ghana", "12.50", true, now, now).
			AddRow(uuid.New().String(), "Nigeria", "7.50", true, now, now))

	rates, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "Ghana", rates[0].Country)
	assert.True(t, rates[0].VATRate.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Nigeria", rates[1].Country)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryVATRepository_ListActive_Error(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "country_vat"`).WillReturnError(errors.New("connection refused"))

	rates, err := repo.ListActive(context.Background())
	assert.Error(t, err)
	assert.Nil(t, rates)
}

func TestCountryVATRepository_FindByID_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "country_vat" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(countryVATColumns))

	rate, err := repo.FindByID(context.Background(), uuid.New())
	assert.Nil(t, rate)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCountryVATRepository_FindByCountry_PrefersActive(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)
	now := time.Now()
	liveID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "country_vat" WHERE LOWER\(country\) = LOWER\(\$1\) ORDER BY is_active DESC, created_at ASC`).
		WillReturnRows(sqlmock.NewRows(countryVATColumns).
			AddRow(liveID.String(), "Ghana", "12.5", true, now, now))

	rate, err := repo.FindByCountry(context.Background(), "ghana")
	require.NoError(t, err)
	assert.Equal(t, liveID, rate.ID)
	assert.True(t, rate.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryVATRepository_CountActiveByCountry(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)
	exclude := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "country_vat" WHERE .*LOWER\(country\) = LOWER\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountActiveByCountry(context.Background(), "ghana", &exclude)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryVATRepository_Delete(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "country_vat" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryVATRepository_Create_BeginFails(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewCountryVATRepository(db)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := repo.Create(context.Background(), &model.CountryVAT{
		Country:  "Ghana",
		VATRate:  decimal.RequireFromString("12.5"),
		IsActive: true,
	})
	assert.Error(t, err)
}

func TestProductRepository_FindTaxAttributes(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)
	p1, p2 := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .*"tax_exempt".* FROM "products" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tax_exempt", "tax_inclusive"}).
			AddRow(p1.String(), false, true).
			AddRow(p2.String(), true, false))

	attrs, err := repo.FindTaxAttributes(context.Background(), []uuid.UUID{p1, p2})
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, p1, attrs[0].ProductID)
	assert.True(t, attrs[0].TaxInclusive)
	assert.False(t, attrs[0].TaxExempt)
	assert.Equal(t, p2, attrs[1].ProductID)
	assert.True(t, attrs[1].TaxExempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindTaxAttributes_EmptyInput(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)

	attrs, err := repo.FindTaxAttributes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, attrs)
	// No query is issued for an empty batch
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateTaxExempt(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "tax_exempt"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.UpdateTaxExempt(context.Background(), uuid.New(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateTaxInclusive_UnknownProduct(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "tax_inclusive"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	affected, err := repo.UpdateTaxInclusive(context.Background(), uuid.New(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestExchangeRateRepository_List(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewExchangeRateRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "exchange_rates" ORDER BY currency ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "currency", "api_rate", "manual_rate", "use_manual", "markup_percent", "fetched_at", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), "USD", "0.00065", "0.0007", true, "2.5", now, now, now))

	rates, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "USD", rates[0].Currency)
	require.NotNil(t, rates[0].ManualRate)
	assert.True(t, rates[0].ManualRate.Equal(decimal.RequireFromString("0.0007")))
	assert.True(t, rates[0].UseManual)
}

func TestGetDB_PrefersTransactionFromContext(t *testing.T) {
	db, mock := setupTestDB(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		assert.True(t, InTx(txCtx))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, InTx(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_List_FiltersAndPages(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAuditRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE action = \$1`).
		WithArgs(model.ActionUpdateVATRate).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE action = \$1 ORDER BY created_at desc LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "entity_id", "entity_name", "details", "created_at"}).
			AddRow(uuid.New().String(), nil, model.ActionUpdateVATRate, "e1", "Nigeria", `{}`, now))

	logs, total, err := repo.List(context.Background(), model.ActionUpdateVATRate, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(31), total)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].UserID)
	assert.Equal(t, "Nigeria", logs[0].EntityName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
