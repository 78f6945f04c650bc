package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func InitPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// GetPaymentMethods lists the methods usable for the current cart
func (pc *PaymentController) GetPaymentMethods(c *gin.Context) {
	utils.LogInfo("GetPaymentMethods called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	methods, err := pc.paymentService.PaymentMethods(ctx, user.ID)
	if err != nil {
		fail(c, "GetPaymentMethods", err)
		return
	}
	utils.Success(c, "Payment methods retrieved", methods)
}

// CreateRazorpayOrder opens a Razorpay order for a pending order
func (pc *PaymentController) CreateRazorpayOrder(c *gin.Context) {
	utils.LogInfo("CreateRazorpayOrder called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.PaymentOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	checkout, err := pc.paymentService.CreateRazorpayOrder(ctx, user.ID, req.OrderID)
	if err != nil {
		fail(c, "CreateRazorpayOrder", err)
		return
	}
	utils.LogInfo("Razorpay order %s created for order %s", checkout.RazorpayOrderID, checkout.OrderCode)
	utils.Success(c, "Razorpay order created", checkout)
}

func (pc *PaymentController) VerifyRazorpayPayment(c *gin.Context) {
	utils.LogInfo("VerifyRazorpayPayment called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := pc.paymentService.VerifyRazorpayPayment(ctx, user.ID, req)
	if err != nil {
		fail(c, "VerifyRazorpayPayment", err)
		return
	}
	utils.LogInfo("Payment %s verified for order %s", req.RazorpayPaymentID, order.OrderID)
	utils.Success(c, "Payment verified successfully", order)
}

// ReportPaymentFailure records a failure reported by the checkout widget
func (pc *PaymentController) ReportPaymentFailure(c *gin.Context) {
	utils.LogInfo("ReportPaymentFailure called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.PaymentOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	order, err := pc.paymentService.MarkPaymentFailed(ctx, user.ID, req.OrderID)
	if err != nil {
		fail(c, "ReportPaymentFailure", err)
		return
	}
	utils.Success(c, "Payment failure recorded", order)
}
