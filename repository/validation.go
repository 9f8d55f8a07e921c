package repository

import (
	"fmt"
	"strings"

	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
	"github.com/yeremiapane/kasir-app/pricing"
)

func validateCreate(items []models.CartItem, customerName string, method models.PaymentMethod) error {
	var details []apperrors.ValidationDetail

	if len(items) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "cart is empty"})
	}
	if customerName == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customer_name", Message: "customer name is required"})
	}
	if !method.Valid() {
		details = append(details, apperrors.ValidationDetail{Field: "payment_method", Message: "payment method must be cash or qris"})
	}
	for i, item := range items {
		details = append(details, validateLine(i, item.Product.ID, item.Size, item.Quantity)...)
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid order", details...)
	}
	return nil
}

func validateReplace(specs []ItemSpec, opts ReplaceOptions) error {
	var details []apperrors.ValidationDetail

	if len(specs) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "an order needs at least one item"})
	}
	for i, spec := range specs {
		details = append(details, validateLine(i, spec.ProductID, spec.Size, spec.Quantity)...)
	}
	if opts.CustomerName != nil && strings.TrimSpace(*opts.CustomerName) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customer_name", Message: "customer name must not be blank"})
	}
	if opts.PaymentMethod != nil && !opts.PaymentMethod.Valid() {
		details = append(details, apperrors.ValidationDetail{Field: "payment_method", Message: "payment method must be cash or qris"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid order edit", details...)
	}
	return nil
}

// validateLine ukuran dicek lewat ParseSize, jadi "LARGE" atau " large " tetap lolos.
func validateLine(i int, productID uint, size models.Size, quantity int) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail
	if productID == 0 {
		details = append(details, apperrors.ValidationDetail{Field: fmt.Sprintf("items[%d].product_id", i), Message: "product is required"})
	}
	if _, err := pricing.ParseSize(string(size)); err != nil {
		details = append(details, apperrors.ValidationDetail{Field: fmt.Sprintf("items[%d].size", i), Message: "size must be regular or large"})
	}
	if quantity <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be greater than zero"})
	}
	return details
}
