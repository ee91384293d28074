package application

import (
	"context"
	"time"

	cartdomain "github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	orderdomain "github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
)

// Step 结算事务中的一步：执行失败时按逆序补偿已完成的步骤
type Step interface {
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// runSaga 顺序执行步骤；某一步失败时逆序补偿之前的步骤并返回失败原因
func runSaga(ctx context.Context, steps []Step) error {
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		if err := step.Execute(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if cerr := done[i].Compensate(ctx); cerr != nil {
					logger.Error(ctx, "saga compensation failed", "error", cerr)
				}
			}
			return err
		}
		done = append(done, step)
	}
	return nil
}

// createOrderStep 订单写入步骤
type createOrderStep struct {
	orders OrderWriter
	order  *orderdomain.Order
	now    func() time.Time
}

func (s *createOrderStep) Execute(ctx context.Context) error {
	return s.orders.Add(ctx, s.order)
}

func (s *createOrderStep) Compensate(ctx context.Context) error {
	s.order.Status = orderdomain.StatusCancelled
	s.order.UpdatedAt = s.now()
	return s.orders.Update(ctx, s.order)
}

// clearCartStep 清空购物车步骤，补偿时恢复下单前的条目
type clearCartStep struct {
	cart       CartPort
	customerID string
	snapshot   []cartdomain.Item
}

func (s *clearCartStep) Execute(ctx context.Context) error {
	s.cart.Clear(ctx, s.customerID)
	return nil
}

func (s *clearCartStep) Compensate(ctx context.Context) error {
	s.cart.Restore(ctx, s.customerID, s.snapshot)
	return nil
}
