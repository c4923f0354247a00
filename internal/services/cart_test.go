package service_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddItem(t *testing.T) {
	ctx := t.Context()
	owner := models.SessionOwner("sess-1")

	t.Run("Success - Same Variant Adds Sum", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 20, 10)

		// Act
		_, err := f.carts.AddItem(ctx, owner, "v1", 2)
		require.NoError(t, err)
		view, err := f.carts.AddItem(ctx, owner, "v1", 3)

		// Assert
		require.NoError(t, err)
		require.Len(t, view.Cart.Items, 1)
		assert.Equal(t, 5, view.Cart.Items[0].Quantity)
		assert.Equal(t, 5, view.ItemCount)
		assert.Equal(t, int64(2), view.Cart.Version)
		require.NotNil(t, view.Cart.ExpiresAt, "session carts carry a TTL")
	})

	t.Run("Success - Unit Price Is Snapshotted", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 20, 10)

		_, err := f.carts.AddItem(ctx, owner, "v1", 1)
		require.NoError(t, err)

		// Act
		f.seedVariant(t, "v1", 25, 10)
		view, err := f.carts.GetOrCreate(ctx, owner)

		// Assert
		require.NoError(t, err)
		assert.True(t, money("20").Equal(view.Cart.Items[0].UnitPrice))
	})

	t.Run("Failure - Invalid Quantity", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 20, 10)

		for _, qty := range []int{0, -1} {
			// Act
			view, err := f.carts.AddItem(ctx, owner, "v1", qty)

			// Assert
			assert.Nil(t, view)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity))
		}
	})

	t.Run("Failure - Current Plus Requested Exceeds Stock", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 20, 3)

		_, err := f.carts.AddItem(ctx, owner, "v1", 2)
		require.NoError(t, err)

		// Act
		_, err = f.carts.AddItem(ctx, owner, "v1", 2)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeOutOfStock))

		view, err := f.carts.GetOrCreate(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, view.Cart.Quantity("v1"), "rejected add must not change the cart")
	})

	t.Run("Failure - Quantity Above The Request Limit", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 20, 10)
		_, err := f.carts.AddItem(ctx, owner, "v1", 2)
		require.NoError(t, err)

		for _, qty := range []int{models.MaxRequestQuantity + 1, math.MaxInt} {
			// Act
			view, err := f.carts.AddItem(ctx, owner, "v1", qty)

			// Assert
			assert.Nil(t, view)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity))
		}

		view, err := f.carts.GetOrCreate(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, view.Cart.Quantity("v1"))
	})

	t.Run("Failure - Largest Request Beyond Stock Is Out Of Stock", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 20, 10)
		_, err := f.carts.AddItem(ctx, owner, "v1", 5)
		require.NoError(t, err)

		// Act
		_, err = f.carts.AddItem(ctx, owner, "v1", models.MaxRequestQuantity)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeOutOfStock))
	})

	t.Run("Failure - Unknown Variant", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.carts.AddItem(ctx, owner, "missing", 1)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound))
	})

	t.Run("Failure - Inactive Variant", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		require.NoError(t, f.store.Repos().Variants.UpsertVariant(ctx, &models.Variant{ID: "v1", Price: money("5"), StockQuantity: 9}))

		// Act
		_, err := f.carts.AddItem(ctx, owner, "v1", 1)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeOutOfStock))
	})
}

func TestCartService_ConcurrentAdds(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedVariant(t, "v1", 10, 100)
	owner := models.UserOwner("user-1")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	// Act
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.carts.AddItem(t.Context(), owner, "v1", 1)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	// Assert
	for err := range errs {
		assert.NoError(t, err)
	}

	view, err := f.carts.GetOrCreate(t.Context(), owner)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Cart.Quantity("v1"))
}

func TestCartService_SetItemQuantity(t *testing.T) {
	ctx := t.Context()
	owner := models.UserOwner("user-1")

	t.Run("Success - Replaces Quantity", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 5)
		_, err := f.carts.AddItem(ctx, owner, "v1", 1)
		require.NoError(t, err)

		// Act
		view, err := f.carts.SetItemQuantity(ctx, owner, "v1", 4)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 4, view.Cart.Quantity("v1"))
		assert.Nil(t, view.Cart.ExpiresAt, "user carts never expire")
	})

	t.Run("Failure - Quantity Above The Request Limit", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 5)
		_, err := f.carts.AddItem(ctx, owner, "v1", 1)
		require.NoError(t, err)

		// Act
		view, err := f.carts.SetItemQuantity(ctx, owner, "v1", math.MaxInt)

		// Assert
		assert.Nil(t, view)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInvalidQuantity))
	})

	t.Run("Success - Zero Is The Same As Remove", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 5)
		f.seedVariant(t, "v2", 10, 5)

		other := models.UserOwner("user-2")
		for _, o := range []models.OwnerKey{owner, other} {
			_, err := f.carts.AddItem(ctx, o, "v1", 2)
			require.NoError(t, err)
			_, err = f.carts.AddItem(ctx, o, "v2", 1)
			require.NoError(t, err)
		}

		// Act
		setView, err := f.carts.SetItemQuantity(ctx, owner, "v1", 0)
		require.NoError(t, err)
		removeView, err := f.carts.RemoveItem(ctx, other, "v1")
		require.NoError(t, err)

		// Assert
		assert.Equal(t, lineContents(removeView.Cart.Items), lineContents(setView.Cart.Items))
		assert.Equal(t, removeView.ItemCount, setView.ItemCount)
		assert.True(t, removeView.Pricing.Total.Equal(setView.Pricing.Total))
	})

	t.Run("Success - Zero On Absent Item Is A No-Op", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		view, err := f.carts.SetItemQuantity(ctx, owner, "v1", 0)

		// Assert
		require.NoError(t, err)
		assert.True(t, view.Cart.IsEmpty())
	})

	t.Run("Failure - Item Not In Cart", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 5)

		// Act
		_, err := f.carts.SetItemQuantity(ctx, owner, "v1", 2)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeItemNotFound))
	})

	t.Run("Failure - Absolute Quantity Exceeds Stock", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 5)
		_, err := f.carts.AddItem(ctx, owner, "v1", 1)
		require.NoError(t, err)

		// Act
		_, err = f.carts.SetItemQuantity(ctx, owner, "v1", 6)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeOutOfStock))
	})
}

func TestCartService_Clear(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedVariant(t, "v1", 10, 5)
	f.seedDiscount(t, percentOff("SAVE10", 10))
	owner := models.UserOwner("user-1")

	_, err := f.carts.AddItem(t.Context(), owner, "v1", 1)
	require.NoError(t, err)
	_, err = f.carts.ApplyDiscount(t.Context(), owner, "save10")
	require.NoError(t, err)

	// Act
	view, err := f.carts.Clear(t.Context(), owner)

	// Assert
	require.NoError(t, err)
	assert.True(t, view.Cart.IsEmpty())
	assert.Empty(t, view.Cart.DiscountCode)
	assert.True(t, view.Pricing.Total.IsZero())
	assert.True(t, view.Pricing.Shipping.IsZero(), "empty carts ship free")
}

func TestCartService_Pricing(t *testing.T) {
	ctx := t.Context()
	owner := models.UserOwner("user-1")

	setup := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.seedVariant(t, "a", 100, 10)
		f.seedVariant(t, "b", 250, 10)
		f.seedDiscount(t, percentOff("SAVE10", 10))

		_, err := f.carts.AddItem(ctx, owner, "a", 2)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, owner, "b", 1)
		require.NoError(t, err)

		return f
	}

	t.Run("Success - Subtotal Shipping And Tax", func(t *testing.T) {
		// Arrange
		f := setup(t)

		// Act
		breakdown, err := f.carts.GetPriceBreakdown(ctx, owner, "", 0)

		// Assert
		require.NoError(t, err)
		assert.True(t, money("450").Equal(breakdown.Subtotal))
		assert.True(t, money("15").Equal(breakdown.Shipping))
		assert.True(t, money("45").Equal(breakdown.Tax))
		assert.True(t, money("510").Equal(breakdown.Total))
		assert.Equal(t, 3, breakdown.ItemCount)
	})

	t.Run("Success - Applied Percentage Code", func(t *testing.T) {
		// Arrange
		f := setup(t)

		// Act
		view, err := f.carts.ApplyDiscount(ctx, owner, " save10 ")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", view.Cart.DiscountCode)
		assert.True(t, money("51").Equal(view.Pricing.DiscountAmount))
		assert.True(t, money("459").Equal(view.Pricing.Total))

		breakdown, err := f.carts.GetPriceBreakdown(ctx, owner, "", 0)
		require.NoError(t, err)
		assert.True(t, money("459").Equal(breakdown.Total), "breakdown falls back to the applied code")
	})

	t.Run("Success - Applying Twice Is Idempotent", func(t *testing.T) {
		// Arrange
		f := setup(t)
		first, err := f.carts.ApplyDiscount(ctx, owner, "SAVE10")
		require.NoError(t, err)

		// Act
		second, err := f.carts.ApplyDiscount(ctx, owner, "SAVE10")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, first.Cart.Version, second.Cart.Version)
		assert.True(t, first.Pricing.Total.Equal(second.Pricing.Total))
	})

	t.Run("Success - Loyalty Redemption In Quote", func(t *testing.T) {
		// Arrange
		f := setup(t)
		f.seedPoints(t, "user-1", 100)

		// Act
		breakdown, err := f.carts.GetPriceBreakdown(ctx, owner, "SAVE10", 40)

		// Assert
		require.NoError(t, err)
		assert.True(t, money("40").Equal(breakdown.LoyaltyRedemption))
		assert.Equal(t, int64(40), breakdown.LoyaltyPointsRedeemed)
		assert.True(t, money("419").Equal(breakdown.Total))
	})

	t.Run("Success - Total Never Negative", func(t *testing.T) {
		// Arrange
		f := setup(t)
		f.seedPoints(t, "user-1", 10_000)
		f.seedDiscount(t, &models.DiscountCode{Code: "BIG", Kind: models.DiscountFixed, Value: money("10000"), Active: true})

		// Act
		breakdown, err := f.carts.GetPriceBreakdown(ctx, owner, "BIG", 10_000)

		// Assert
		require.NoError(t, err)
		assert.True(t, breakdown.Total.IsZero())
		assert.True(t, money("510").Equal(breakdown.DiscountAmount))
		assert.Zero(t, breakdown.LoyaltyPointsRedeemed)
	})

	t.Run("Failure - Invalid Code Does Not Mutate The Cart", func(t *testing.T) {
		// Arrange
		f := setup(t)
		before, err := f.carts.GetOrCreate(ctx, owner)
		require.NoError(t, err)

		// Act
		_, err = f.carts.ApplyDiscount(ctx, owner, "NOPE")

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeDiscountInvalid))

		after, err := f.carts.GetOrCreate(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, before.Cart.Version, after.Cart.Version)
		assert.Empty(t, after.Cart.DiscountCode)
	})

	t.Run("Failure - Explicit Invalid Code In Quote", func(t *testing.T) {
		// Arrange
		f := setup(t)

		// Act
		_, err := f.carts.GetPriceBreakdown(ctx, owner, "NOPE", 0)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeDiscountInvalid))
	})

	t.Run("Failure - Redeem More Than Balance", func(t *testing.T) {
		// Arrange
		f := setup(t)
		f.seedPoints(t, "user-1", 5)

		// Act
		_, err := f.carts.GetPriceBreakdown(ctx, owner, "", 6)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInsufficientPoints))
	})

	t.Run("Success - Remove Discount", func(t *testing.T) {
		// Arrange
		f := setup(t)
		_, err := f.carts.ApplyDiscount(ctx, owner, "SAVE10")
		require.NoError(t, err)

		// Act
		view, err := f.carts.RemoveDiscount(ctx, owner)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, view.Cart.DiscountCode)
		assert.True(t, money("510").Equal(view.Pricing.Total))
	})
}

func TestCartService_MergeSessionIntoUser(t *testing.T) {
	ctx := t.Context()
	session := models.SessionOwner("sess-1")
	user := models.UserOwner("user-1")

	t.Run("Success - Quantities Sum And Session Cart Is Deleted", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 20)
		f.seedVariant(t, "v2", 5, 20)

		_, err := f.carts.AddItem(ctx, user, "v1", 2)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, session, "v1", 1)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, session, "v2", 4)
		require.NoError(t, err)

		// Act
		view, err := f.carts.MergeSessionIntoUser(ctx, "sess-1", "user-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, view.Cart.Quantity("v1"))
		assert.Equal(t, 4, view.Cart.Quantity("v2"))

		_, err = f.store.Repos().Carts.GetCart(ctx, session, time.Now())
		assert.Error(t, err, "session cart must be gone")
	})

	t.Run("Success - Merge Is Idempotent", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 20)

		_, err := f.carts.AddItem(ctx, session, "v1", 2)
		require.NoError(t, err)

		first, err := f.carts.MergeSessionIntoUser(ctx, "sess-1", "user-1")
		require.NoError(t, err)

		// Act
		second, err := f.carts.MergeSessionIntoUser(ctx, "sess-1", "user-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, first.Cart.Items, second.Cart.Items)
		assert.Equal(t, first.Cart.Version, second.Cart.Version)
	})

	t.Run("Success - Clamps To Stock And Drops Unavailable Variants", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 6)
		f.seedVariant(t, "gone", 10, 6)

		_, err := f.carts.AddItem(ctx, user, "v1", 4)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, session, "v1", 4)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, session, "gone", 1)
		require.NoError(t, err)

		require.NoError(t, f.store.Repos().Variants.UpsertVariant(ctx, &models.Variant{ID: "gone", Price: money("10"), StockQuantity: 6, Active: false}))

		// Act
		view, err := f.carts.MergeSessionIntoUser(ctx, "sess-1", "user-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 6, view.Cart.Quantity("v1"))
		_, ok := view.Cart.Line("gone")
		assert.False(t, ok)
	})

	t.Run("Success - Publishes Merge Event", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedVariant(t, "v1", 10, 6)

		_, err := f.carts.AddItem(ctx, session, "v1", 1)
		require.NoError(t, err)

		sub := f.hub.Subscribe(user, "tab-1")
		defer sub.Close()

		// Act
		_, err = f.carts.MergeSessionIntoUser(ctx, "sess-1", "user-1")

		// Assert
		require.NoError(t, err)
		select {
		case event := <-sub.Events():
			assert.Equal(t, notifier.EventCartMerged, event.Type)
		case <-time.After(time.Second):
			t.Fatal("expected a cart.merged event")
		}
	})
}

func TestCartService_Notifications(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedVariant(t, "v1", 10, 6)
	owner := models.UserOwner("user-1")

	origin := f.hub.Subscribe(owner, "tab-1")
	defer origin.Close()
	other := f.hub.Subscribe(owner, "tab-2")
	defer other.Close()

	ctx := notifier.WithClientID(t.Context(), "tab-1")

	// Act
	_, err := f.carts.AddItem(ctx, owner, "v1", 1)

	// Assert
	require.NoError(t, err)

	select {
	case event := <-other.Events():
		assert.Equal(t, notifier.EventCartUpdated, event.Type)
		assert.Equal(t, "tab-1", event.Origin)
	case <-time.After(time.Second):
		t.Fatal("other session should be told about the change")
	}

	select {
	case <-origin.Events():
		t.Fatal("the originating connection must not be echoed")
	default:
	}
}

func TestCartService_SessionCartExpires(t *testing.T) {
	// Arrange
	f := newFixture(t, withCartConfig(config.Cart{SessionTTL: time.Millisecond, LockWait: time.Second}))
	f.seedVariant(t, "v1", 10, 6)
	owner := models.SessionOwner("sess-1")

	_, err := f.carts.AddItem(t.Context(), owner, "v1", 1)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	// Act
	view, err := f.carts.GetOrCreate(t.Context(), owner)

	// Assert
	require.NoError(t, err)
	assert.True(t, view.Cart.IsEmpty(), "an expired cart is treated as absent")
}
