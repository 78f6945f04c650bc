package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/testutil"
	"github.com/zekoya/storefront/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func errType(t *testing.T, err error) string {
	t.Helper()
	appErr := utils.GetAppError(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	return appErr.ErrorType
}

func TestStorefrontFlows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	category := testutil.CreateCategory(t, db, "Hoodies")

	t.Run("cart rules", func(t *testing.T) {
		carts := NewCartService(db, config.AppConfig)
		wishlist := NewWishlistService(db)
		product := testutil.CreateProduct(t, db, category.ID, "1200", map[string]int{models.SizeL: 3})
		user := testutil.CreateUser(t, db)

		require.NoError(t, wishlist.AddToWishlist(ctx, user.ID, product.ID))

		view, err := carts.AddToCart(ctx, user.ID, AddToCartRequest{ProductID: product.ID, Size: models.SizeL, Quantity: 2})
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.True(t, decimal.NewFromInt(2400).Equal(view.Total))

		saved, err := wishlist.ListWishlist(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, saved, "adding to the cart takes the product off the wishlist")

		_, err = carts.AddToCart(ctx, user.ID, AddToCartRequest{ProductID: product.ID, Size: models.SizeL, Quantity: 1})
		assert.Equal(t, utils.ErrTypeDuplicateItem, errType(t, err))

		_, err = carts.UpdateCartItemQuantity(ctx, user.ID, view.Items[0].ID, 11)
		assert.Equal(t, utils.ErrTypeMaxQuantity, errType(t, err))

		_, err = carts.UpdateCartItemQuantity(ctx, user.ID, view.Items[0].ID, 4)
		assert.Equal(t, utils.ErrTypeInsufficientStock, errType(t, err))

		_, err = carts.AddToCart(ctx, user.ID, AddToCartRequest{ProductID: product.ID, Size: models.SizeS, Quantity: 1})
		assert.Equal(t, utils.ErrTypeItemUnavailable, errType(t, err))

		require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_listed", false).Error)
		view, err = carts.GetCart(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.True(t, view.HasUnavailableItems)
		assert.Equal(t, utils.ReasonProductUnlisted, view.Items[0].UnavailableReason)
		assert.True(t, view.Total.IsZero())

		view, err = carts.RemoveFromCart(ctx, user.ID, view.Items[0].ID)
		require.NoError(t, err)
		assert.Empty(t, view.Items)
	})

	t.Run("address book keeps one default", func(t *testing.T) {
		addresses := NewAddressService(db)
		user := testutil.CreateUser(t, db)
		input := func(line string) utils.AddressInput {
			return utils.AddressInput{
				FullName: "Asha Rao", Phone: "9845012345", Line1: line,
				City: "Mysuru", State: "Karnataka", PostalCode: "570001",
			}
		}

		first, err := addresses.AddAddress(ctx, user.ID, input("1 Palace Road"))
		require.NoError(t, err)
		assert.True(t, first.IsDefault)

		second, err := addresses.AddAddress(ctx, user.ID, input("2 Palace Road"))
		require.NoError(t, err)
		assert.False(t, second.IsDefault)

		third := input("3 Palace Road")
		third.IsDefault = true
		created, err := addresses.AddAddress(ctx, user.ID, third)
		require.NoError(t, err)

		list, err := addresses.ListAddresses(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, created.ID, list[0].ID)
		assert.False(t, list[1].IsDefault)
		assert.False(t, list[2].IsDefault)

		require.NoError(t, addresses.DeleteAddress(ctx, user.ID, created.ID))
		list, err = addresses.ListAddresses(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.True(t, list[0].IsDefault)

		_, err = addresses.AddAddress(ctx, user.ID, utils.AddressInput{FullName: "X", Phone: "123", Line1: "1 Road", City: "Mysuru", State: "Karnataka", PostalCode: "1"})
		assert.Equal(t, utils.ErrTypeValidation, errType(t, err))

		other := testutil.CreateUser(t, db)
		err = addresses.DeleteAddress(ctx, other.ID, second.ID)
		require.Error(t, err)
		assert.Equal(t, 404, utils.GetAppError(err).Code)
	})

	t.Run("coupon preview", func(t *testing.T) {
		coupons := NewCouponService(db)
		now := time.Now()
		_, err := coupons.CreateCoupon(ctx, CouponInput{
			Code:          "hoodie20",
			DiscountType:  models.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(20),
			MaxDiscount:   decimal.NewFromInt(300),
			MinPurchase:   decimal.NewFromInt(1000),
			StartDate:     now.Add(-time.Hour),
			EndDate:       now.Add(24 * time.Hour),
		})
		require.NoError(t, err)

		preview, err := coupons.ValidateCoupon(ctx, " Hoodie20 ", decimal.NewFromInt(2000))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(300).Equal(preview.Discount))
		assert.True(t, decimal.NewFromInt(1700).Equal(preview.PayableAmount))

		_, err = coupons.ValidateCoupon(ctx, "HOODIE20", decimal.NewFromInt(999))
		assert.Equal(t, utils.ErrTypeInvalidCoupon, errType(t, err))

		_, err = coupons.ValidateCoupon(ctx, "NOPE", decimal.NewFromInt(2000))
		assert.Equal(t, utils.ErrTypeInvalidCoupon, errType(t, err))
	})

	t.Run("overlapping product offers are refused", func(t *testing.T) {
		offers := NewOfferService(db, nil)
		product := testutil.CreateProduct(t, db, category.ID, "900", map[string]int{models.SizeM: 2})
		start := time.Now().Add(-time.Hour)
		window := OfferWindowInput{
			Name:          "Festive",
			DiscountType:  models.DiscountTypeFixed,
			DiscountValue: decimal.NewFromInt(100),
			StartDate:     start,
			EndDate:       start.Add(72 * time.Hour),
		}

		first, err := offers.CreateProductOffer(ctx, ProductOfferInput{ProductID: product.ID, OfferWindowInput: window})
		require.NoError(t, err)

		window.StartDate = start.Add(24 * time.Hour)
		window.EndDate = start.Add(96 * time.Hour)
		_, err = offers.CreateProductOffer(ctx, ProductOfferInput{ProductID: product.ID, OfferWindowInput: window})
		assert.Equal(t, utils.ErrTypeOfferOverlap, errType(t, err))

		_, err = offers.ToggleProductOffer(ctx, first.ID)
		require.NoError(t, err)
		_, err = offers.CreateProductOffer(ctx, ProductOfferInput{ProductID: product.ID, OfferWindowInput: window})
		assert.NoError(t, err)
	})

	t.Run("referral pays both sides once", func(t *testing.T) {
		offers := NewOfferService(db, nil)
		referrals := NewReferralService(db)
		now := time.Now()
		_, err := offers.CreateReferralOffer(ctx, ReferralOfferInput{
			Name:           "Bring a friend",
			ReferrerReward: decimal.NewFromInt(150),
			RefereeReward:  decimal.NewFromInt(100),
			StartDate:      now.Add(-time.Hour),
			EndDate:        now.Add(time.Hour),
		})
		require.NoError(t, err)

		referrer := testutil.CreateUser(t, db)
		referee := testutil.CreateUser(t, db)

		mine, err := referrals.GetReferral(ctx, referrer.ID)
		require.NoError(t, err)
		assert.Len(t, mine.ReferralCode, 8)

		_, err = referrals.ApplyReferralCode(ctx, referrer.ID, mine.ReferralCode)
		assert.Equal(t, utils.ErrTypeReferral, errType(t, err))

		view, err := referrals.ApplyReferralCode(ctx, referee.ID, mine.ReferralCode)
		require.NoError(t, err)
		require.NotNil(t, view.ReferredBy)
		assert.Equal(t, referrer.ID, *view.ReferredBy)

		assert.True(t, decimal.NewFromInt(150).Equal(testutil.WalletBalance(t, db, referrer.ID)))
		assert.True(t, decimal.NewFromInt(100).Equal(testutil.WalletBalance(t, db, referee.ID)))

		_, err = referrals.ApplyReferralCode(ctx, referee.ID, mine.ReferralCode)
		assert.Equal(t, utils.ErrTypeReferral, errType(t, err))
		assert.True(t, decimal.NewFromInt(100).Equal(testutil.WalletBalance(t, db, referee.ID)))

		again, err := referrals.GetReferral(ctx, referrer.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.ReferralCode, again.ReferralCode)
		assert.Equal(t, 1, again.ReferralCount)
	})

	t.Run("wallet deadlock is retried", func(t *testing.T) {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		// separate handle so the failing callback stays out of the other subtests
		flaky, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
		require.NoError(t, err)
		failures := 1
		require.NoError(t, flaky.Callback().Query().Before("gorm:query").Register("test:wallet_deadlock", func(d *gorm.DB) {
			if d.Statement.Table == "wallets" && failures > 0 {
				failures--
				d.AddError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
			}
		}))

		user := testutil.CreateUser(t, db)
		attempts := 0
		err = utils.WithTransaction(ctx, flaky, func(tx *gorm.DB) error {
			attempts++
			_, err := utils.CreditWallet(tx, utils.WalletEntry{
				UserID:      user.ID,
				Amount:      decimal.NewFromInt(75),
				Description: "Goodwill credit",
				Reference:   fmt.Sprintf("GOODWILL-%d", user.ID),
			})
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.True(t, decimal.NewFromInt(75).Equal(testutil.WalletBalance(t, db, user.ID)))
	})
}
