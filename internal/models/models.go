// Package models defines the core data structures for the collection agent.
//
// It includes the conversation state threaded through every stage handler,
// the customer/loan records the state is created from, and the persisted
// business records (promises to pay, disputes, call summaries) shared across
// modules.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Stage identifies a node in the conversation state machine.
type Stage string

const (
	// StageInit is the state of a freshly created conversation.
	StageInit Stage = "init"
	// StageGreeting delivers the opening identity-confirmation question.
	StageGreeting Stage = "greeting"
	// StageVerification collects and checks the customer's date of birth.
	StageVerification Stage = "verification"
	// StageDisclosure delivers the mandatory debt disclosure.
	StageDisclosure Stage = "disclosure"
	// StagePaymentCheck classifies the customer's payment intent.
	StagePaymentCheck Stage = "payment_check"
	// StagePaidVerification verifies an "already paid" claim.
	StagePaidVerification Stage = "paid_verification"
	// StageNegotiation drives the payment negotiation sub-machine.
	StageNegotiation Stage = "negotiation"
	// StageClosing composes the final message and records the outcome.
	StageClosing Stage = "closing"
)

// PaymentStatus captures the classified payment intent of the customer.
type PaymentStatus string

const (
	PaymentStatusUnknown  PaymentStatus = "unknown"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusDisputed PaymentStatus = "disputed"
	PaymentStatusUnable   PaymentStatus = "unable"
	PaymentStatusWilling  PaymentStatus = "willing"
	PaymentStatusCallback PaymentStatus = "callback"
)

// NegotiationPhase identifies a sub-state of the negotiation handler.
type NegotiationPhase string

const (
	PhaseNotStarted          NegotiationPhase = "not_started"
	PhasePartialPayment      NegotiationPhase = "partial_payment_collection"
	PhaseReasonCollection    NegotiationPhase = "reason_collection"
	PhaseConfirmationPending NegotiationPhase = "whatsapp_confirmation_pending"
	PhaseEscalated           NegotiationPhase = "escalated"
	PhaseClosed              NegotiationPhase = "closed"
)

// Terminal call outcomes recorded on completed conversations.
const (
	OutcomeVerificationFailed = "verification_failed"
	OutcomePaid               = "paid"
	OutcomeDisputed           = "disputed"
	OutcomeCallback           = "callback"
	OutcomeUnable             = "unable"
	OutcomeWilling            = "willing"
	OutcomePTPRecorded        = "ptp_recorded"
	OutcomePTPConfirmed       = "ptp_confirmed"
	OutcomeEscalated          = "escalated"
	OutcomeSystemError        = "system_error"
)

// Message roles in the conversation log.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// MaxVerificationAttempts bounds the verification attempt counter: the
// initial DOB request plus three failed replies locks the conversation.
const MaxVerificationAttempts = 4

// Validation errors surfaced by CallState.Validate. These indicate stage
// handler contract breaches, not recoverable business conditions.
var (
	ErrPendingAmountMissing  = errors.New("awaiting delay reason without a pending commitment amount")
	ErrPartialFinalization   = errors.New("promise record finalized without both amount and date")
	ErrMissingOutcome        = errors.New("conversation complete without a call outcome")
	ErrAwaitingWithoutPrompt = errors.New("awaiting user input without an assistant message to answer")
	ErrAttemptsExceeded      = errors.New("verification attempt counter exceeded bound")
)

// Message is a single entry in the conversation log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Customer is the identity record a conversation is created from.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	// DOB is the verification secret, stored as DD-MM-YYYY.
	DOB string `json:"dob"`
}

// Loan is the delinquent account the conversation is about.
type Loan struct {
	ID          string  `json:"id"`
	CustomerID  string  `json:"customer_id"`
	Type        string  `json:"type"`
	Principal   float64 `json:"principal"`
	Outstanding float64 `json:"outstanding"`
	EMI         float64 `json:"emi"`
	DueDate     string  `json:"due_date"`
	DaysPastDue int     `json:"days_past_due"`
}

// PaymentPlan is a structured repayment option offered during negotiation.
type PaymentPlan struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Months      int     `json:"months"`      // 0 for immediate settlement
	Installment float64 `json:"installment"` // per-month amount, or the settlement total
	Total       float64 `json:"total"`
}

// PromiseToPay is a finalized payment commitment.
type PromiseToPay struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Amount     float64   `json:"amount"`
	Date       string    `json:"date"` // DD-MM-YYYY
	PlanName   string    `json:"plan_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Dispute is a customer's denial of the debt, queued for review.
type Dispute struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// CallRecord is the summary persisted once per completed conversation.
type CallRecord struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	Outcome       string        `json:"outcome"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Summary       string        `json:"summary"`
	CreatedAt     time.Time     `json:"created_at"`
}

// CallState is the single mutable record threaded through every turn of a
// conversation. Stage handlers receive it by value and return an updated
// copy; the only channel of communication between stages is this struct.
type CallState struct {
	// Conversation log and control fields.
	Messages      []Message `json:"messages"`
	Stage         Stage     `json:"stage"`
	TurnCount     int       `json:"turn_count"`
	LastUserInput string    `json:"last_user_input,omitempty"`
	AwaitingUser  bool      `json:"awaiting_user"`
	HasGreeted    bool      `json:"has_greeted"`
	HasDisclosed  bool      `json:"has_disclosed"`
	IsComplete    bool      `json:"is_complete"`

	// Customer identity, set once at creation.
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerDOB   string `json:"customer_dob"`

	// Loan facts, set once at creation.
	LoanID            string  `json:"loan_id"`
	LoanType          string  `json:"loan_type"`
	OutstandingAmount float64 `json:"outstanding_amount"`
	DaysPastDue       int     `json:"days_past_due"`

	// Verification.
	VerificationAttempts int  `json:"verification_attempts"`
	IsVerified           bool `json:"is_verified"`

	// Payment classification.
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	ProofAsked    bool          `json:"proof_asked"`

	// Negotiation working memory.
	NegotiationPhase     NegotiationPhase `json:"negotiation_phase,omitempty"`
	OfferedPlans         []PaymentPlan    `json:"offered_plans,omitempty"`
	PlansJustOffered     bool             `json:"plans_just_offered,omitempty"`
	SelectedPlan         *PaymentPlan     `json:"selected_plan,omitempty"`
	PendingAmount        float64          `json:"pending_amount,omitempty"`
	PendingDate          string           `json:"pending_date,omitempty"`
	RefusalCount         int              `json:"refusal_count,omitempty"`
	SettlementPushCount  int              `json:"settlement_push_count,omitempty"`
	InstallmentTierCount int              `json:"installment_tier_count,omitempty"`
	CallbackMode         bool             `json:"callback_mode,omitempty"`
	PartialAttempted     bool             `json:"partial_attempted,omitempty"`
	AwaitingDelayReason  bool             `json:"awaiting_delay_reason,omitempty"`
	AwaitingCallbackWhen bool             `json:"awaiting_callback_when,omitempty"`
	AwaitingConfirmation bool             `json:"awaiting_confirmation,omitempty"`
	HasEscalated         bool             `json:"has_escalated,omitempty"`
	SessionLocked        bool             `json:"session_locked,omitempty"`

	// Finalized promise to pay. Populated exactly once, after a delay
	// reason has been collected, and immutable thereafter.
	PTPAmount   float64 `json:"ptp_amount,omitempty"`
	PTPDate     string  `json:"ptp_date,omitempty"`
	PTPPlanName string  `json:"ptp_plan_name,omitempty"`
	PTPID       string  `json:"ptp_id,omitempty"`
	DelayReason string  `json:"delay_reason,omitempty"`
	PaymentLink string  `json:"payment_link,omitempty"`

	// Dispute record.
	DisputeReason string `json:"dispute_reason,omitempty"`
	DisputeID     string `json:"dispute_id,omitempty"`

	// Call outcome.
	CallOutcome string `json:"call_outcome,omitempty"`
	CallSummary string `json:"call_summary,omitempty"`
}

// NewCallState creates the initial state for a customer contact with all
// mutable fields at their defaults.
func NewCallState(c Customer, l Loan) CallState {
	return CallState{
		Stage:             StageInit,
		PaymentStatus:     PaymentStatusUnknown,
		NegotiationPhase:  PhaseNotStarted,
		CustomerID:        c.ID,
		CustomerName:      c.Name,
		CustomerPhone:     c.Phone,
		CustomerDOB:       c.DOB,
		LoanID:            l.ID,
		LoanType:          l.Type,
		OutstandingAmount: l.Outstanding,
		DaysPastDue:       l.DaysPastDue,
	}
}

// FirstName returns the customer's first name for use in messages.
func (s *CallState) FirstName() string {
	for i, r := range s.CustomerName {
		if r == ' ' {
			return s.CustomerName[:i]
		}
	}
	return s.CustomerName
}

// AppendAssistant appends an assistant message to the conversation log.
func (s *CallState) AppendAssistant(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()})
}

// AppendUser appends a user message to the conversation log.
func (s *CallState) AppendUser(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content, Timestamp: time.Now()})
}

// LastAssistantMessage returns the most recent assistant message, or "".
func (s *CallState) LastAssistantMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// ConsumeUserInput returns the pending user utterance and clears it.
func (s *CallState) ConsumeUserInput() string {
	input := s.LastUserInput
	s.LastUserInput = ""
	return input
}

// Clone returns a deep copy of the state. The session layer snapshots the
// pre-turn state with this so a failed turn can be rolled back.
func (s CallState) Clone() CallState {
	c := s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	if s.OfferedPlans != nil {
		c.OfferedPlans = make([]PaymentPlan, len(s.OfferedPlans))
		copy(c.OfferedPlans, s.OfferedPlans)
	}
	if s.SelectedPlan != nil {
		plan := *s.SelectedPlan
		c.SelectedPlan = &plan
	}
	return c
}

// Validate checks the structural invariants that must hold after every
// stage handler application. A returned error indicates a handler contract
// breach and aborts the turn.
func (s *CallState) Validate() error {
	if s.PaymentStatus == PaymentStatusWilling && s.AwaitingDelayReason && s.PendingAmount <= 0 {
		return ErrPendingAmountMissing
	}
	if s.PTPID != "" && (s.PTPAmount <= 0 || s.PTPDate == "") {
		return ErrPartialFinalization
	}
	if s.IsComplete && s.CallOutcome == "" {
		return ErrMissingOutcome
	}
	if s.AwaitingUser {
		if len(s.Messages) == 0 || s.Messages[len(s.Messages)-1].Role != RoleAssistant {
			return ErrAwaitingWithoutPrompt
		}
	}
	if s.VerificationAttempts > MaxVerificationAttempts {
		return fmt.Errorf("%w: %d", ErrAttemptsExceeded, s.VerificationAttempts)
	}
	return nil
}
