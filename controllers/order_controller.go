package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

// IdempotencyKeyHeader lets a client retry checkout without placing a second order
const IdempotencyKeyHeader = "Idempotency-Key"

type OrderController struct {
	orderService services.OrderService
}

func InitOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// bindReason reads an optional {"reason": ...} body
func bindReason(c *gin.Context) (string, bool) {
	var req services.ReasonRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if !bindJSON(c, &req) {
		return "", false
	}
	return strings.TrimSpace(req.Reason), true
}

// CreateOrder places an order from the cart
func (oc *OrderController) CreateOrder(c *gin.Context) {
	utils.LogInfo("CreateOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)); key != "" {
		req.IdempotencyKey = key
	}
	utils.LogDebug("Checkout for user %d: method=%s address=%d coupon=%q", user.ID, req.PaymentMethod, req.AddressID, req.CouponCode)

	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, created, err := oc.orderService.CreateOrder(ctx, user.ID, req)
	if err != nil {
		fail(c, "CreateOrder", err)
		return
	}
	if !created {
		utils.LogInfo("Idempotent replay of order %s for user %d", order.OrderID, user.ID)
		utils.Success(c, "Order already placed", order)
		return
	}
	utils.LogInfo("Order %s placed by user %d, total %s via %s", order.OrderID, user.ID, order.TotalPrice.StringFixed(2), order.PaymentMethod)
	utils.Created(c, "Order placed successfully", order)
}

func (oc *OrderController) ListOrders(c *gin.Context) {
	utils.LogInfo("ListOrders called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	orders, err := oc.orderService.ListOrders(ctx, user.ID, c.Query("status"), pagination)
	if err != nil {
		fail(c, "ListOrders", err)
		return
	}
	utils.SendPaginatedResponse(c, "Orders retrieved successfully", orders, pagination)
}

// GetOrder accepts the numeric id or the public order code
func (oc *OrderController) GetOrder(c *gin.Context) {
	utils.LogInfo("GetOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.orderService.GetOrder(ctx, user.ID, c.Param("id"))
	if err != nil {
		fail(c, "GetOrder", err)
		return
	}
	utils.Success(c, "Order retrieved successfully", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	utils.LogInfo("CancelOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.orderService.CancelOrder(ctx, user.ID, c.Param("id"), reason)
	if err != nil {
		fail(c, "CancelOrder", err)
		return
	}
	utils.LogInfo("Order %s cancelled by user %d", order.OrderID, user.ID)
	utils.Success(c, "Order cancelled successfully", order)
}

func (oc *OrderController) CancelOrderItem(c *gin.Context) {
	utils.LogInfo("CancelOrderItem called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.orderService.CancelOrderItem(ctx, user.ID, c.Param("id"), itemID, reason)
	if err != nil {
		fail(c, "CancelOrderItem", err)
		return
	}
	utils.LogInfo("Item %d of order %s cancelled by user %d", itemID, order.OrderID, user.ID)
	utils.Success(c, "Item cancelled successfully", order)
}

func (oc *OrderController) RequestReturn(c *gin.Context) {
	utils.LogInfo("RequestReturn called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.orderService.RequestReturn(ctx, user.ID, c.Param("id"), itemID, reason)
	if err != nil {
		fail(c, "RequestReturn", err)
		return
	}
	utils.LogInfo("Return requested for item %d of order %s", itemID, order.OrderID)
	utils.Success(c, "Return request submitted", order)
}

// DownloadInvoice streams the invoice PDF
func (oc *OrderController) DownloadInvoice(c *gin.Context) {
	utils.LogInfo("DownloadInvoice called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, pdf, err := oc.orderService.Invoice(ctx, user.ID, c.Param("id"))
	if err != nil {
		fail(c, "DownloadInvoice", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", order.OrderID))
	c.Data(http.StatusOK, "application/pdf", pdf)
	utils.LogInfo("Invoice for order %s sent", order.OrderID)
}
