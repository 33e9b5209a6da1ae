package model

import "strings"

// CheckoutStatus classifies who, if anyone, holds a content item checked out.
type CheckoutStatus int

const (
	NotCheckedOut CheckoutStatus = iota
	CheckedOutBySelf
	CheckedOutByOther
)

// String returns the canonical name of the checkout status.
func (s CheckoutStatus) String() string {
	switch s {
	case CheckedOutBySelf:
		return "checked_out_by_self"
	case CheckedOutByOther:
		return "checked_out_by_other"
	default:
		return "not_checked_out"
	}
}

// ClassifyCheckout classifies a content item's checkout state from the
// recorded checkout owner and the requesting user. A blank owner (after
// trimming) means the item is not checked out; otherwise the comparison is
// case-insensitive. Total: never fails, performs no I/O.
func ClassifyCheckout(checkoutUserName, requestingUserName string) CheckoutStatus {
	owner := strings.TrimSpace(checkoutUserName)
	if owner == "" {
		return NotCheckedOut
	}
	if strings.EqualFold(owner, strings.TrimSpace(requestingUserName)) {
		return CheckedOutBySelf
	}
	return CheckedOutByOther
}
