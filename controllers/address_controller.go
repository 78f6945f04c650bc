package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type AddressController struct {
	addressService services.AddressService
}

func InitAddressController(addressService services.AddressService) *AddressController {
	return &AddressController{addressService: addressService}
}

func (ac *AddressController) ListAddresses(c *gin.Context) {
	utils.LogInfo("ListAddresses called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	addresses, err := ac.addressService.ListAddresses(ctx, user.ID)
	if err != nil {
		fail(c, "ListAddresses", err)
		return
	}
	utils.Success(c, "Addresses retrieved successfully", gin.H{"addresses": addresses})
}

func (ac *AddressController) AddAddress(c *gin.Context) {
	utils.LogInfo("AddAddress called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input utils.AddressInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	address, err := ac.addressService.AddAddress(ctx, user.ID, input)
	if err != nil {
		fail(c, "AddAddress", err)
		return
	}
	utils.Created(c, "Address added successfully", address)
}

func (ac *AddressController) UpdateAddress(c *gin.Context) {
	utils.LogInfo("UpdateAddress called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "addressId")
	if !ok {
		return
	}
	var input utils.AddressInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	address, err := ac.addressService.UpdateAddress(ctx, user.ID, addressID, input)
	if err != nil {
		fail(c, "UpdateAddress", err)
		return
	}
	utils.Success(c, "Address updated successfully", address)
}

func (ac *AddressController) DeleteAddress(c *gin.Context) {
	utils.LogInfo("DeleteAddress called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "addressId")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := ac.addressService.DeleteAddress(ctx, user.ID, addressID); err != nil {
		fail(c, "DeleteAddress", err)
		return
	}
	utils.Success(c, "Address deleted successfully", nil)
}

func (ac *AddressController) SetDefaultAddress(c *gin.Context) {
	utils.LogInfo("SetDefaultAddress called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := paramID(c, "addressId")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	address, err := ac.addressService.SetDefaultAddress(ctx, user.ID, addressID)
	if err != nil {
		fail(c, "SetDefaultAddress", err)
		return
	}
	utils.Success(c, "Default address updated", address)
}
