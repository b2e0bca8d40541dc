package database

import (
	"errors"
	"time"

	"marketplace_manager/constants"
	"marketplace_manager/model"

	"gorm.io/gorm"
)

// Bản GORM của các store mà helper.Reconciler tiêu thụ.

type GormPaymentStore struct{}

func (GormPaymentStore) FindByOrderId(orderId uint) (*model.Payment, error) {
	var payment model.Payment
	if err := DB.Where("order_id = ?", orderId).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (GormPaymentStore) FindByTransactionId(transId string) (*model.Payment, error) {
	var payment model.Payment
	if err := DB.Where("transaction_id = ?", transId).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (GormPaymentStore) Save(p *model.Payment) error {
	return DB.Save(p).Error
}

// UpdateStatusIfNotTerminal chống race giữa hai kênh xác nhận bằng một
// UPDATE có điều kiện duy nhất; RowsAffected quyết định ai thắng.
func (GormPaymentStore) UpdateStatusIfNotTerminal(orderId uint, newStatus string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": newStatus}
	for k, v := range fields {
		updates[k] = v
	}
	result := DB.Model(&model.Payment{}).
		Where("order_id = ? AND status NOT IN ?", orderId, []string{constants.PAYMENT_COMPLETED, constants.PAYMENT_FAILED}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (GormPaymentStore) FindStalePending(methods []string, cutoff time.Time) ([]model.Payment, error) {
	var stale []model.Payment
	err := DB.
		Where("status = ? AND method IN ? AND updated_at < ?", constants.PAYMENT_PENDING, methods, cutoff).
		Find(&stale).Error
	return stale, err
}

type GormOrderStore struct{}

func (GormOrderStore) FindById(orderId uint) (*model.Order, error) {
	var order model.Order
	if err := DB.First(&order, orderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (GormOrderStore) UpdateStatus(orderId uint, status string, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	return DB.Model(&model.Order{}).Where("id = ?", orderId).Updates(updates).Error
}

type GormHistoryStore struct{}

func (GormHistoryStore) Append(entry *model.OrderStatusHistory) error {
	return DB.Create(entry).Error
}
