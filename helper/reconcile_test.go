package helper

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"marketplace_manager/constants"
	"marketplace_manager/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// fakeStore gom cả ba store, mô phỏng UPDATE có điều kiện của DB bằng mutex
type fakeStore struct {
	mu       sync.Mutex
	payments map[uint]*model.Payment
	orders   map[uint]*model.Order
	history  []model.OrderStatusHistory
	fields   map[uint]map[string]interface{} // fields đã ghi qua UpdateStatusIfNotTerminal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments: map[uint]*model.Payment{},
		orders:   map[uint]*model.Order{},
		fields:   map[uint]map[string]interface{}{},
	}
}

func (f *fakeStore) FindByOrderId(orderId uint) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderId]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) FindByTransactionId(transId string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.TransactionId != nil && *p.TransactionId == transId {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Save(p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.payments[p.OrderId] = &cp
	return nil
}

func (f *fakeStore) UpdateStatusIfNotTerminal(orderId uint, newStatus string, fields map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderId]
	if !ok || p.Status == constants.PAYMENT_COMPLETED || p.Status == constants.PAYMENT_FAILED {
		return false, nil
	}
	p.Status = newStatus
	f.fields[orderId] = fields
	return true, nil
}

func (f *fakeStore) FindStalePending(methods []string, cutoff time.Time) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Payment
	for _, p := range f.payments {
		if p.Status != constants.PAYMENT_PENDING || !p.UpdatedAt.Before(cutoff) {
			continue
		}
		for _, m := range methods {
			if p.Method == m {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) FindById(orderId uint) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderId]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(orderId uint, status string, paidAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderId]; ok {
		o.Status = status
		o.PaidAt = paidAt
	}
	return nil
}

func (f *fakeStore) Append(entry *model.OrderStatusHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeStore) historyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

func newTestReconciler(store *fakeStore) *Reconciler {
	return &Reconciler{
		Payments: store,
		Orders:   store,
		History:  store,
		Secret:   testSecret,
	}
}

func seedPendingPayment(store *fakeStore, orderId uint, amount int64) {
	store.payments[orderId] = &model.Payment{
		OrderId: orderId,
		Amount:  amount,
		Method:  constants.METHOD_WALLET,
		Status:  constants.PAYMENT_PENDING,
	}
	store.orders[orderId] = &model.Order{
		TotalAmount: amount,
		Status:      constants.ORDER_PENDING,
	}
	store.orders[orderId].ID = orderId
}

// signedConfirmation dựng bản tin xác nhận hợp lệ và ký đúng secret
func signedConfirmation(orderId uint, amount int64) *model.MoMoConfirmation {
	conf := &model.MoMoConfirmation{
		PartnerCode:  "MOMO",
		AccessKey:    "access",
		RequestId:    "req-1",
		Amount:       strconv.FormatInt(amount, 10),
		OrderId:      EncodeOrderID(orderId, "169900000001"),
		OrderInfo:    "Thanh toán đơn hàng",
		OrderType:    "momo_wallet",
		TransId:      "2302586804",
		Message:      "Success",
		LocalMessage: "Thành công",
		ResponseTime: "2026-01-02 15:04:05",
		ErrorCode:    "0",
		PayType:      "qr",
		ExtraData:    "",
	}
	conf.Signature = SignHMAC(BuildCanonicalString(conf.CanonicalPairs()), testSecret)
	return conf
}

func TestConfirmCompletesPayment(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	r := newTestReconciler(store)

	result := r.Confirm(signedConfirmation(42, 169900), constants.CHANNEL_IPN)

	require.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, uint(42), result.OrderId)
	assert.Equal(t, "2302586804", result.TransactionId)
	assert.Equal(t, constants.PAYMENT_COMPLETED, result.Status)
	assert.True(t, result.Updated)

	assert.Equal(t, constants.PAYMENT_COMPLETED, store.payments[42].Status)
	assert.Equal(t, constants.ORDER_PAID, store.orders[42].Status)
	assert.Equal(t, 1, store.historyCount())
	assert.Equal(t, "2302586804", store.fields[42]["transaction_id"])
}

func TestConfirmIdempotent(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	r := newTestReconciler(store)
	conf := signedConfirmation(42, 169900)

	first := r.Confirm(conf, constants.CHANNEL_RETURN)
	second := r.Confirm(conf, constants.CHANNEL_IPN)

	assert.Equal(t, OutcomeCompleted, first.Outcome)
	assert.Equal(t, OutcomeAlreadyDone, second.Outcome)
	assert.Equal(t, constants.PAYMENT_COMPLETED, second.Status)
	assert.False(t, second.Updated)
	// Đúng một lần chuyển trạng thái, đúng một dòng sổ
	assert.Equal(t, constants.PAYMENT_COMPLETED, store.payments[42].Status)
	assert.Equal(t, 1, store.historyCount())
}

func TestConfirmRaceBetweenChannels(t *testing.T) {
	// Redirect và IPN về gần như đồng thời, thứ tự bất kỳ:
	// đúng một kênh được chuyển trạng thái
	for i := 0; i < 50; i++ {
		store := newFakeStore()
		seedPendingPayment(store, 42, 169900)
		r := newTestReconciler(store)
		conf := signedConfirmation(42, 169900)

		var wg sync.WaitGroup
		results := make([]ReconcileResult, 2)
		channels := []string{constants.CHANNEL_RETURN, constants.CHANNEL_IPN}
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				results[j] = r.Confirm(conf, channels[j])
			}(j)
		}
		wg.Wait()

		completed := 0
		for _, res := range results {
			switch res.Outcome {
			case OutcomeCompleted:
				completed++
			case OutcomeAlreadyDone:
			default:
				t.Fatalf("kết cục bất ngờ: %s", res.Outcome)
			}
		}
		assert.Equal(t, 1, completed)
		assert.Equal(t, constants.PAYMENT_COMPLETED, store.payments[42].Status)
		assert.Equal(t, 1, store.historyCount())
	}
}

func TestConfirmRejectsTamperedAmount(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	r := newTestReconciler(store)

	// Chữ ký gốc ký trên amount gốc; sửa amount sau đó phải trượt verify
	conf := signedConfirmation(42, 169900)
	conf.Amount = "1"

	result := r.Confirm(conf, constants.CHANNEL_IPN)

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, constants.PAYMENT_PENDING, store.payments[42].Status)
	assert.Equal(t, 0, store.historyCount())
}

func TestConfirmAmountGuard(t *testing.T) {
	// Bản tin ký ĐÚNG nhưng cho số tiền khác số đã chốt: vẫn từ chối cứng
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	r := newTestReconciler(store)

	conf := signedConfirmation(42, 500)

	result := r.Confirm(conf, constants.CHANNEL_IPN)

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, constants.PAYMENT_PENDING, store.payments[42].Status)
	assert.Equal(t, 0, store.historyCount())
}

func TestConfirmUnresolvableOrderId(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	r := newTestReconciler(store)

	conf := signedConfirmation(42, 169900)
	conf.OrderId = "garbage"
	conf.Signature = SignHMAC(BuildCanonicalString(conf.CanonicalPairs()), testSecret)

	result := r.Confirm(conf, constants.CHANNEL_IPN)

	// Fail closed: không được khớp nhầm sang đơn nào khác
	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, uint(0), result.OrderId)
	assert.Equal(t, constants.PAYMENT_PENDING, store.payments[42].Status)
}

func TestConfirmDeclinedDoesNotTouchState(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	r := newTestReconciler(store)

	conf := signedConfirmation(42, 169900)
	conf.ErrorCode = "49"
	// Không cần chữ ký hợp lệ: bản tin thất bại không phải sự kiện đã xác thực

	result := r.Confirm(conf, constants.CHANNEL_RETURN)

	assert.Equal(t, OutcomeDeclined, result.Outcome)
	assert.Equal(t, constants.PAYMENT_PENDING, store.payments[42].Status)
	assert.Equal(t, 0, store.historyCount())
}

func TestConfirmMissingPaymentFailsClosed(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(store)

	result := r.Confirm(signedConfirmation(42, 169900), constants.CHANNEL_IPN)

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, 0, store.historyCount())
}

func TestConfirmTerminalPaymentIsNoOp(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 42, 169900)
	store.payments[42].Status = constants.PAYMENT_FAILED
	r := newTestReconciler(store)

	result := r.Confirm(signedConfirmation(42, 169900), constants.CHANNEL_IPN)

	// Muộn còn hơn không, nhưng FAILED đã chốt thì chỉ báo đã xử lý;
	// Status mang kết cục terminal thật để boundary không báo thành công
	assert.Equal(t, OutcomeAlreadyDone, result.Outcome)
	assert.Equal(t, constants.PAYMENT_FAILED, result.Status)
	assert.Equal(t, constants.PAYMENT_FAILED, store.payments[42].Status)
	assert.Equal(t, 0, store.historyCount())
}

func TestCompleteStoresExtraCorrelationFields(t *testing.T) {
	store := newFakeStore()
	seedPendingPayment(store, 7, 250000)
	store.payments[7].Method = constants.METHOD_PAYPAL
	r := newTestReconciler(store)

	result := r.Complete(7, "SALE-123", 250000, constants.CHANNEL_EXECUTE, map[string]interface{}{
		"payer_id":   "PAYER-9",
		"capture_id": "SALE-123",
	})

	require.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, "PAYER-9", store.fields[7]["payer_id"])
	assert.Equal(t, "SALE-123", store.fields[7]["capture_id"])
	assert.Equal(t, "SALE-123", store.fields[7]["transaction_id"])
}
