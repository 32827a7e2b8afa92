package models

import (
	"github.com/shopspring/decimal"
)

type RugType string

const (
	RugTypeNone RugType = "none"
	RugTypeHard RugType = "hard"
	RugTypeSoft RugType = "soft"
)

type LiquidityStatus string

const (
	LiquidityOK      LiquidityStatus = "ok"
	LiquidityLow     LiquidityStatus = "low"
	LiquidityDrained LiquidityStatus = "drained"
)

// RugStatus annotates a trade or position with the token's current risk
// state. For closed trades only IsRugNow/RugWarning are meaningful: realized
// PnL at exit is immutable history and a later rug never rewrites it. When
// the state lookup failed the annotation is absent entirely (nil pointer),
// never zero-valued.
type RugStatus struct {
	IsRug      bool     `json:"is_rug"`
	RugType    RugType  `json:"rug_type"`
	RugReasons []string `json:"rug_reasons,omitempty"`

	IsRugNow   bool   `json:"is_rug_now,omitempty"`
	RugWarning string `json:"rug_warning,omitempty"`

	ConfirmedLossUSD    decimal.Decimal  `json:"confirmed_loss_usd"`
	CurrentLiquidityUSD *decimal.Decimal `json:"current_liquidity_usd,omitempty"`
	CurrentValueUSD     *decimal.Decimal `json:"current_value_usd,omitempty"`
	LiquidityStatus     LiquidityStatus  `json:"liquidity_status,omitempty"`
	CanExit             bool             `json:"can_exit"`
}

// TokenState is the data provider's current view of a token, consumed by the
// rug enricher.
type TokenState struct {
	LiquidityUSD        decimal.Decimal `json:"liquidity_usd"`
	Price               decimal.Decimal `json:"price"`
	DevRugHistoryCount  int             `json:"dev_rug_history_count"`
	HolderConcentration decimal.Decimal `json:"holder_concentration"`
}
