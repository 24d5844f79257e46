package repository

import (
	"context"

	"github.com/dormhub/service-booking/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormUnitOfWork runs ledger work inside one database transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork.
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Within commits when fn returns nil and rolls back otherwise.
func (u *GormUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return u.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, ledger.Tx{
			Bookings: NewGormBookingRepository(db),
			Payments: NewGormPaymentRepository(db),
			Events:   NewGormStatusEventRepository(db),
		})
	})
}

// AutoMigrateModels creates or alters every table this service owns. Used in
// development; other environments run the SQL migrations.
func AutoMigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&RoomRateModel{},
		&BookingModel{},
		&PaymentRecordModel{},
		&StatusEventModel{},
	)
}
