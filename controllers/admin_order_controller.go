package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type AdminOrderController struct {
	adminOrderService services.AdminOrderService
}

func InitAdminOrderController(adminOrderService services.AdminOrderService) *AdminOrderController {
	return &AdminOrderController{adminOrderService: adminOrderService}
}

// orderFilter reads status, payment_method, search and a from/to date window.
// The to date is inclusive.
func orderFilter(c *gin.Context) (services.OrderFilter, bool) {
	filter := services.OrderFilter{
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		Search:        c.Query("search"),
	}
	if filter.Status != "" && !utils.IsValidOrderStatus(filter.Status) {
		utils.BadRequest(c, "Invalid order status", nil)
		return filter, false
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.BadRequest(c, "from must be YYYY-MM-DD", nil)
			return filter, false
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.BadRequest(c, "to must be YYYY-MM-DD", nil)
			return filter, false
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		utils.BadRequest(c, "from must not be after to", nil)
		return filter, false
	}
	return filter, true
}

func (oc *AdminOrderController) ListOrders(c *gin.Context) {
	utils.LogInfo("AdminListOrders called")
	filter, ok := orderFilter(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	orders, err := oc.adminOrderService.ListOrders(ctx, filter, pagination)
	if err != nil {
		fail(c, "AdminListOrders", err)
		return
	}
	utils.LogDebug("Retrieved %d orders (total %d)", len(orders), pagination.Total)
	utils.SendPaginatedResponse(c, "Orders retrieved successfully", orders, pagination)
}

func (oc *AdminOrderController) GetOrder(c *gin.Context) {
	utils.LogInfo("AdminGetOrder called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.adminOrderService.GetOrder(ctx, id)
	if err != nil {
		fail(c, "AdminGetOrder", err)
		return
	}
	utils.Success(c, "Order retrieved successfully", order)
}

func (oc *AdminOrderController) UpdateOrderStatus(c *gin.Context) {
	utils.LogInfo("UpdateOrderStatus called")
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.adminOrderService.UpdateOrderStatus(ctx, admin.ID, id, req)
	if err != nil {
		fail(c, "UpdateOrderStatus", err)
		return
	}
	utils.LogInfo("Admin %d moved order %s to %s", admin.ID, order.OrderID, order.OrderStatus)
	utils.Success(c, "Order status updated", order)
}

func (oc *AdminOrderController) ProcessReturn(c *gin.Context) {
	utils.LogInfo("ProcessReturn called")
	admin, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req services.ReturnDecisionRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := oc.adminOrderService.ProcessReturn(ctx, admin.ID, id, itemID, req)
	if err != nil {
		fail(c, "ProcessReturn", err)
		return
	}
	utils.LogInfo("Admin %d %sed return of item %d on order %s", admin.ID, req.Action, itemID, order.OrderID)
	utils.Success(c, "Return request processed", order)
}

func (oc *AdminOrderController) ListReturnRequests(c *gin.Context) {
	utils.LogInfo("ListReturnRequests called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	returns, err := oc.adminOrderService.ListReturnRequests(ctx, pagination)
	if err != nil {
		fail(c, "ListReturnRequests", err)
		return
	}
	utils.SendPaginatedResponse(c, "Return requests retrieved successfully", returns, pagination)
}
