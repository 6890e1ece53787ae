package withdrawal

// CreateWithdrawalRequest — заявка продавца на вывод средств.
type CreateWithdrawalRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Method      string `json:"method" binding:"required,oneof=bank_card bank_account"`
	Details     string `json:"details" binding:"required,max=255"`
}
