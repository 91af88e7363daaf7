package paymentmethod

import "time"

type Type string

const (
	TypeUPI         Type = "upi"
	TypeBank        Type = "bank"
	TypeCrypto      Type = "crypto"
	TypePaymentLink Type = "payment_link"
	TypeCustom      Type = "custom"
)

// DetailRules lists the validator tags for the keys each type must carry.
var DetailRules = map[Type]map[string]string{
	TypeUPI: {
		"upi_id": "required",
	},
	TypeBank: {
		"account_name":   "required",
		"account_number": "required",
		"bank_name":      "required",
		"ifsc_or_swift":  "required",
	},
	TypeCrypto: {
		"network":        "required",
		"wallet_address": "required",
	},
	TypePaymentLink: {
		"url": "required,url",
	},
	TypeCustom: {
		"label":        "required",
		"instructions": "required",
	},
}

func (t Type) IsValid() bool {
	_, ok := DetailRules[t]
	return ok
}

type PaymentMethod struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Type       Type              `json:"type"`
	Details    map[string]string `json:"details"`
	IsActive   bool              `json:"is_active"`
	OrderIndex int               `json:"order_index"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
