package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type WalletController struct {
	walletService   services.WalletService
	referralService services.ReferralService
}

func InitWalletController(walletService services.WalletService, referralService services.ReferralService) *WalletController {
	return &WalletController{walletService: walletService, referralService: referralService}
}

// GetWallet returns the balance and a page of transactions
func (wc *WalletController) GetWallet(c *gin.Context) {
	utils.LogInfo("GetWallet called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	wallet, err := wc.walletService.GetWallet(ctx, user.ID, utils.NewPagination(c))
	if err != nil {
		fail(c, "GetWallet", err)
		return
	}
	utils.LogDebug("Wallet of user %d: balance %s", user.ID, wallet.Balance.StringFixed(2))
	utils.Success(c, "Wallet retrieved successfully", wallet)
}

func (wc *WalletController) GetReferral(c *gin.Context) {
	utils.LogInfo("GetReferral called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	referral, err := wc.referralService.GetReferral(ctx, user.ID)
	if err != nil {
		fail(c, "GetReferral", err)
		return
	}
	utils.Success(c, "Referral details retrieved", referral)
}

func (wc *WalletController) ApplyReferral(c *gin.Context) {
	utils.LogInfo("ApplyReferral called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ApplyReferralRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	referral, err := wc.referralService.ApplyReferralCode(ctx, user.ID, req.Code)
	if err != nil {
		fail(c, "ApplyReferral", err)
		return
	}
	utils.Success(c, "Referral code applied", referral)
}
