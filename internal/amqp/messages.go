package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op names an engine mutation carried over the wire.
type Op string

const (
	OpAddTransaction    Op = "transaction.add"
	OpUpdateTransaction Op = "transaction.update"
	OpRemoveTransaction Op = "transaction.remove"
	OpAddBudget         Op = "budget.add"
	OpUpdateBudget      Op = "budget.update"
	OpDeleteBudget      Op = "budget.delete"
)

// IsValid reports whether op names a known mutation.
func (op Op) IsValid() bool {
	switch op {
	case OpAddTransaction, OpUpdateTransaction, OpRemoveTransaction,
		OpAddBudget, OpUpdateBudget, OpDeleteBudget:
		return true
	default:
		return false
	}
}

// MutationMessage is one replayed engine operation. Remote collaborators
// translate their own wire format into these and the replay worker applies
// them against the engine in arrival order.
type MutationMessage struct {
	Op        Op                  `json:"op"`
	ID        string              `json:"id,omitempty"` // target of update/remove ops
	Tx        *TransactionPayload `json:"transaction,omitempty"`
	Budget    *BudgetPayload      `json:"budget,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// TransactionPayload carries transaction fields. Pointer fields double as a
// sparse patch on update ops; nil means leave unchanged.
type TransactionPayload struct {
	Type        *string `json:"type,omitempty"`
	Amount      *int64  `json:"amount,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	PhotoRef    *string `json:"photoRef,omitempty"`
}

// BudgetPayload carries budget fields for add and update ops.
type BudgetPayload struct {
	CategoryID *string `json:"categoryId,omitempty"`
	Month      *string `json:"month,omitempty"`
	Amount     *int64  `json:"amount,omitempty"`
	Spent      *int64  `json:"spent,omitempty"`
}

// NewMutationMessage stamps a message with the current time.
func NewMutationMessage(op Op) *MutationMessage {
	return &MutationMessage{Op: op, Timestamp: time.Now()}
}

// Validate checks the message is self-consistent enough to attempt a replay.
func (m *MutationMessage) Validate() error {
	if !m.Op.IsValid() {
		return fmt.Errorf("unknown op %q", m.Op)
	}
	switch m.Op {
	case OpAddTransaction:
		if m.Tx == nil {
			return fmt.Errorf("%s: missing transaction payload", m.Op)
		}
	case OpUpdateTransaction:
		if m.ID == "" {
			return fmt.Errorf("%s: missing target id", m.Op)
		}
		if m.Tx == nil {
			return fmt.Errorf("%s: missing transaction payload", m.Op)
		}
	case OpRemoveTransaction, OpDeleteBudget:
		if m.ID == "" {
			return fmt.Errorf("%s: missing target id", m.Op)
		}
	case OpAddBudget:
		if m.Budget == nil || m.Budget.CategoryID == nil || m.Budget.Month == nil || m.Budget.Amount == nil {
			return fmt.Errorf("%s: missing budget payload", m.Op)
		}
	case OpUpdateBudget:
		if m.ID == "" {
			return fmt.Errorf("%s: missing target id", m.Op)
		}
		if m.Budget == nil {
			return fmt.Errorf("%s: missing budget payload", m.Op)
		}
	}
	return nil
}

// ToJSON converts the message to JSON bytes.
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON decodes a message from JSON bytes.
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
