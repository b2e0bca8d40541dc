package handler

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"marketplace_manager/config"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedis tạo redis client dùng chung cho pub/sub và cache token
func InitRedis() *redis.Client {
	addr := config.Config("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr})
	return redisClient
}

// redisStatusPublisher đẩy chuyển trạng thái thanh toán lên kênh payment:<orderId>
type redisStatusPublisher struct {
	Client *redis.Client
}

func (p *redisStatusPublisher) PublishPaymentStatus(orderId uint, status, transId string) {
	if p.Client == nil {
		return
	}
	payload := fmt.Sprintf(`{"orderId":%d,"status":%q,"transactionId":%q}`, orderId, status, transId)
	if err := p.Client.Publish(context.Background(), fmt.Sprintf("payment:%d", orderId), payload).Err(); err != nil {
		log.Printf("Lỗi publish trạng thái thanh toán orderId=%d: %v", orderId, err)
	}
}

// PaymentWebsocket client theo dõi trạng thái thanh toán của một đơn
// trong lúc chờ redirect/IPN về. Mỗi kết nối tự sub kênh redis của đơn
// mình, broadcast do redis lo nên không cần registry phía app.
func PaymentWebsocket(c *websocket.Conn) {
	orderIdStr := c.Params("orderId")
	id64, _ := strconv.ParseUint(orderIdStr, 10, 64)
	orderId := uint(id64)

	defer c.Close()

	// Gửi trạng thái hiện tại lần đầu
	if payment, err := reconciler.Payments.FindByOrderId(orderId); err == nil && payment != nil {
		c.WriteJSON(payment)
	}

	// Sub kênh redis của đơn này
	pubsub := redisClient.Subscribe(
		context.Background(),
		fmt.Sprintf("payment:%d", orderId),
	)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
			return
		}
	}
}
