package repository

import (
	"time"

	"caketime/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// ClaimWebhookEvent records the event id. It returns false when the event was
// already recorded, which makes redelivery a no-op.
func (r *PaymentRepository) ClaimWebhookEvent(tx *gorm.DB, eventID, eventType string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entity.WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
