package indexer

import (
	"fmt"
	"strconv"
)

// Attribute keys emitted by the dex module on its "message" events.
const (
	attrModule    = "module"
	attrAction    = "action"
	attrToken0    = "Token0"
	attrToken1    = "Token1"
	attrTokenIn   = "TokenIn"
	attrTokenOut  = "TokenOut"
	attrAmountIn  = "AmountIn"
	attrAmountOut = "AmountOut"
	attrTickIndex = "TickIndex"
	attrFee       = "Fee"
	attrReserves  = "Reserves"
	attrCreator   = "Creator"
	attrReceiver  = "Receiver"
	attrShares    = "SharesMinted"
	attrBurned    = "SharesBurned"
	attrReserves0 = "Reserves0"
	attrReserves1 = "Reserves1"
	attrLimitTick = "LimitTick"
	attrOrderID   = "TrancheKey"
	attrTokenAttr = "TokenUpdated"

	moduleDex = "dex"
)

// Action names carried in the "action" attribute. Deposits and withdrawals
// appear under two spellings depending on the chain version; both map to the
// same action.
const (
	ActionSwap            = "Swap"
	ActionDeposit         = "Deposit"
	ActionDepositLP       = "DepositLP"
	ActionWithdraw        = "Withdraw"
	ActionWithdrawLP      = "WithdrawLP"
	ActionPlaceLimitOrder = "PlaceLimitOrder"
	ActionTickUpdate      = "TickUpdate"
)

// Action is the tagged union over recognized dex actions. Exactly one of the
// concrete types below implements it per parsed event.
type Action interface {
	ActionName() string
}

// SwapAction is one swap: AmountIn of TokenIn traded for AmountOut of TokenOut.
type SwapAction struct {
	Token0    string
	Token1    string
	TokenIn   string
	TokenOut  string
	AmountIn  string
	AmountOut string
	Creator   string
	Receiver  string
}

func (SwapAction) ActionName() string { return ActionSwap }

// DepositAction is one liquidity deposit into a tick/fee position.
type DepositAction struct {
	Token0       string
	Token1       string
	TickIndex    int64
	Fee          uint64
	Reserves0    string
	Reserves1    string
	SharesMinted string
	Creator      string
	Receiver     string
}

func (DepositAction) ActionName() string { return ActionDeposit }

// WithdrawAction is one liquidity withdrawal from a tick/fee position.
type WithdrawAction struct {
	Token0       string
	Token1       string
	TickIndex    int64
	Fee          uint64
	Reserves0    string
	Reserves1    string
	SharesBurned string
	Creator      string
	Receiver     string
}

func (WithdrawAction) ActionName() string { return ActionWithdraw }

// PlaceLimitOrderAction is one limit order placement.
type PlaceLimitOrderAction struct {
	Token0    string
	Token1    string
	TokenIn   string
	AmountIn  string
	LimitTick int64
	OrderID   string
	Creator   string
	Receiver  string
}

func (PlaceLimitOrderAction) ActionName() string { return ActionPlaceLimitOrder }

// TickUpdateAction carries the absolute new reserve amount at one
// (pair, token, tick, fee) key. It is the sole input to state derivation.
type TickUpdateAction struct {
	Token0    string
	Token1    string
	Token     string
	TickIndex int64
	Fee       uint64
	Reserves  string
}

func (TickUpdateAction) ActionName() string { return ActionTickUpdate }

// ParseAction extracts a dex action from a decoded event. It returns
// (nil, nil) for events that are not recognized dex actions, and an error for
// a recognized action with malformed attributes.
func ParseAction(ev DecodedEvent) (Action, error) {
	if ev.Type != "message" {
		return nil, nil
	}
	attrs := ev.Attributes
	if attrs[attrModule] != moduleDex {
		return nil, nil
	}

	switch attrs[attrAction] {
	case ActionSwap:
		return SwapAction{
			Token0:    attrs[attrToken0],
			Token1:    attrs[attrToken1],
			TokenIn:   attrs[attrTokenIn],
			TokenOut:  attrs[attrTokenOut],
			AmountIn:  attrs[attrAmountIn],
			AmountOut: attrs[attrAmountOut],
			Creator:   attrs[attrCreator],
			Receiver:  attrs[attrReceiver],
		}, requirePair(attrs)

	case ActionDeposit, ActionDepositLP:
		tick, fee, err := tickAndFee(attrs)
		if err != nil {
			return nil, err
		}
		return DepositAction{
			Token0:       attrs[attrToken0],
			Token1:       attrs[attrToken1],
			TickIndex:    tick,
			Fee:          fee,
			Reserves0:    attrs[attrReserves0],
			Reserves1:    attrs[attrReserves1],
			SharesMinted: attrs[attrShares],
			Creator:      attrs[attrCreator],
			Receiver:     attrs[attrReceiver],
		}, requirePair(attrs)

	case ActionWithdraw, ActionWithdrawLP:
		tick, fee, err := tickAndFee(attrs)
		if err != nil {
			return nil, err
		}
		return WithdrawAction{
			Token0:       attrs[attrToken0],
			Token1:       attrs[attrToken1],
			TickIndex:    tick,
			Fee:          fee,
			Reserves0:    attrs[attrReserves0],
			Reserves1:    attrs[attrReserves1],
			SharesBurned: attrs[attrBurned],
			Creator:      attrs[attrCreator],
			Receiver:     attrs[attrReceiver],
		}, requirePair(attrs)

	case ActionPlaceLimitOrder:
		limitTick, err := parseInt(attrs, attrLimitTick)
		if err != nil {
			return nil, err
		}
		return PlaceLimitOrderAction{
			Token0:    attrs[attrToken0],
			Token1:    attrs[attrToken1],
			TokenIn:   attrs[attrTokenIn],
			AmountIn:  attrs[attrAmountIn],
			LimitTick: limitTick,
			OrderID:   attrs[attrOrderID],
			Creator:   attrs[attrCreator],
			Receiver:  attrs[attrReceiver],
		}, requirePair(attrs)

	case ActionTickUpdate:
		tick, fee, err := tickAndFee(attrs)
		if err != nil {
			return nil, err
		}
		token := attrs[attrTokenAttr]
		if token == "" {
			token = attrs[attrTokenIn]
		}
		if token == "" {
			return nil, fmt.Errorf("tick update without updated token")
		}
		return TickUpdateAction{
			Token0:    attrs[attrToken0],
			Token1:    attrs[attrToken1],
			Token:     token,
			TickIndex: tick,
			Fee:       fee,
			Reserves:  attrs[attrReserves],
		}, requirePair(attrs)
	}

	return nil, nil
}

func requirePair(attrs map[string]string) error {
	if attrs[attrToken0] == "" || attrs[attrToken1] == "" {
		return fmt.Errorf("action %s missing token pair", attrs[attrAction])
	}
	return nil
}

func tickAndFee(attrs map[string]string) (int64, uint64, error) {
	tick, err := parseInt(attrs, attrTickIndex)
	if err != nil {
		return 0, 0, err
	}
	fee, err := parseUint(attrs, attrFee)
	if err != nil {
		return 0, 0, err
	}
	return tick, fee, nil
}

func parseInt(attrs map[string]string, key string) (int64, error) {
	v, err := strconv.ParseInt(attrs[key], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", key, err)
	}
	return v, nil
}

func parseUint(attrs map[string]string, key string) (uint64, error) {
	v, err := strconv.ParseUint(attrs[key], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", key, err)
	}
	return v, nil
}
