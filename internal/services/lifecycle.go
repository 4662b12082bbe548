package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

var (
	// ErrTransactionNotFound is returned when the transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrOfferNotFound is returned when the offer is absent or belongs to a different transaction.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrConflict is returned when a status precondition fails.
	ErrConflict = errors.New("transaction status conflict")
	// ErrDuplicateOffer is returned when the user already has an open offer on the transaction.
	ErrDuplicateOffer = errors.New("open offer already exists")
	// ErrProofRequired is returned when validating a sell trade without an uploaded proof.
	ErrProofRequired = errors.New("payment proof required")
	// ErrOwnTransaction is returned when a user bids on their own transaction.
	ErrOwnTransaction = errors.New("cannot offer on own transaction")
	// ErrForbidden is returned when the caller is not the required participant.
	ErrForbidden = errors.New("caller is not a participant of this operation")
)

// TransactionWriter defines the transaction write operations the engine needs.
// The conditional transitions return affected-row counts: zero rows means the
// precondition did not hold at the store.
type TransactionWriter interface {
	Save(ctx context.Context, t *models.TransactionDB) error
	MarkOfferMade(ctx context.Context, transactionID uuid.UUID) (int64, error)
	AcceptEscrow(ctx context.Context, transactionID, winnerUserID uuid.UUID) (int64, error)
	SetProof(ctx context.Context, transactionID uuid.UUID, fileName, hash string) (int64, error)
	Complete(ctx context.Context, transactionID uuid.UUID, requireProof bool) (int64, error)
	Fail(ctx context.Context, transactionID uuid.UUID) (int64, error)
	UpdateMetadata(ctx context.Context, transactionID uuid.UUID, patch models.TransactionMetadataPatch) (int64, error)
}

// TransactionReader defines the transaction read operations the engine needs.
type TransactionReader interface {
	GetByID(ctx context.Context, transactionID uuid.UUID) (*models.TransactionDB, error)
	List(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionDB, error)
}

// OfferWriter defines the offer write operations the engine needs.
type OfferWriter interface {
	SaveGuarded(ctx context.Context, o *models.OfferDB) (int64, error)
	Settle(ctx context.Context, transactionID, acceptedOfferID uuid.UUID) (int64, error)
}

// OfferReader defines the offer read operations the engine needs.
type OfferReader interface {
	GetByID(ctx context.Context, offerID uuid.UUID) (*models.OfferDB, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.OfferDB, error)
	HasOpenOffer(ctx context.Context, transactionID, userID uuid.UUID) (bool, error)
}

// NotificationWriter appends per-user notifications.
type NotificationWriter interface {
	Save(ctx context.Context, n *models.NotificationDB) error
}

// EventBroadcaster pushes trade events to live dashboard sessions.
type EventBroadcaster interface {
	Publish(ev models.TradeEvent)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LifecycleService owns the transaction state machine:
// pending -> offer_made -> escrow -> completed, with failed reachable from any
// non-terminal state. Every transition runs through a single-row conditional
// update in the store; notification, bus and Kafka emission never gate a
// transition.
type LifecycleService struct {
	transactions TransactionWriter
	txReader     TransactionReader
	offers       OfferWriter
	offerReader  OfferReader
	notifier     NotificationWriter
	bus          EventBroadcaster
	kafkaWriter  KafkaWriter
}

// NewLifecycleService creates the lifecycle engine.
func NewLifecycleService(
	transactions TransactionWriter,
	txReader TransactionReader,
	offers OfferWriter,
	offerReader OfferReader,
	notifier NotificationWriter,
	bus EventBroadcaster,
	kafkaWriter KafkaWriter,
) *LifecycleService {
	return &LifecycleService{
		transactions: transactions,
		txReader:     txReader,
		offers:       offers,
		offerReader:  offerReader,
		notifier:     notifier,
		bus:          bus,
		kafkaWriter:  kafkaWriter,
	}
}

// CreateTransactionInput carries the immutable-at-creation transaction fields.
type CreateTransactionInput struct {
	UserID            uuid.UUID
	TradeType         string
	Direction         string
	Chain             string
	Token             string
	Amount            float64
	Currency          string
	SettlementAccount string
	WalletAddress     string
	ClientAlias       *string
	KYCLink           *string
	Notes             *string
	Origin            *string
	SLAMinutes        *int
}

// newCode builds the human-readable transaction code: time plus a short
// random suffix. Collisions are improbable, not impossible.
func newCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("OTC-%d-%s", time.Now().UnixMilli(), suffix)
}

// CreateTransaction creates a new trade request in pending status.
func (s *LifecycleService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*models.TransactionDB, error) {
	settlement := in.SettlementAccount
	if settlement == "" {
		settlement = models.SettlementExternal
	}

	t := &models.TransactionDB{
		TransactionID:     uuid.New(),
		Code:              newCode(),
		UserID:            in.UserID,
		TradeType:         in.TradeType,
		Direction:         in.Direction,
		Chain:             in.Chain,
		Token:             in.Token,
		Amount:            in.Amount,
		Currency:          in.Currency,
		SettlementAccount: settlement,
		WalletAddress:     in.WalletAddress,
		Status:            models.StatusPending,
		ClientAlias:       in.ClientAlias,
		KYCLink:           in.KYCLink,
		Notes:             in.Notes,
		Origin:            in.Origin,
		SLAMinutes:        in.SLAMinutes,
	}

	if err := s.transactions.Save(ctx, t); err != nil {
		logger.Log.Errorw("failed to save transaction", "user_id", in.UserID, "error", err)
		return nil, err
	}

	s.emit(ctx, models.TradeEvent{
		Event:         models.EventTransactionCreated,
		TransactionID: t.TransactionID,
		Code:          t.Code,
		Status:        t.Status,
		EmittedAt:     time.Now().Unix(),
	})

	return t, nil
}

// SubmitOfferInput carries the fields of a new offer.
type SubmitOfferInput struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	Amount        float64
	Currency      string
	BankAccountID *uuid.UUID
	WalletAddress *string
	ETAMinutes    int
	Notes         *string
}

// SubmitOffer registers a bid on a pending or offer_made transaction. The
// first offer moves the transaction to offer_made. The insert itself is
// guarded at the store: it fails closed when the transaction has left the
// offer window or the user already holds an open offer.
func (s *LifecycleService) SubmitOffer(ctx context.Context, in SubmitOfferInput) (*models.OfferDB, error) {
	t, err := s.txReader.GetByID(ctx, in.TransactionID)
	if err != nil {
		logger.Log.Errorw("failed to load transaction", "transaction_id", in.TransactionID, "error", err)
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.UserID == in.UserID {
		return nil, ErrOwnTransaction
	}
	if t.Status != models.StatusPending && t.Status != models.StatusOfferMade {
		return nil, ErrConflict
	}

	o := &models.OfferDB{
		OfferID:       uuid.New(),
		TransactionID: in.TransactionID,
		UserID:        in.UserID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		BankAccountID: in.BankAccountID,
		WalletAddress: in.WalletAddress,
		ETAMinutes:    in.ETAMinutes,
		Notes:         in.Notes,
		Status:        models.OfferOpen,
	}

	rows, err := s.offers.SaveGuarded(ctx, o)
	if err != nil {
		logger.Log.Errorw("failed to save offer", "transaction_id", in.TransactionID, "user_id", in.UserID, "error", err)
		return nil, err
	}
	if rows == 0 {
		// Either the user already has an open offer, or the transaction left
		// the offer window between the read above and the insert.
		dup, err := s.offerReader.HasOpenOffer(ctx, in.TransactionID, in.UserID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, ErrDuplicateOffer
		}
		return nil, ErrConflict
	}

	if _, err := s.transactions.MarkOfferMade(ctx, in.TransactionID); err != nil {
		logger.Log.Errorw("failed to mark offer_made", "transaction_id", in.TransactionID, "error", err)
		return nil, err
	}

	s.notify(ctx, t.UserID, models.NotificationOfferReceived, models.SeverityInfo,
		"New offer received",
		fmt.Sprintf("An operator offered %.2f %s on %s", in.Amount, in.Currency, t.Code),
		models.NotificationPayload{TransactionID: t.TransactionID, OfferID: &o.OfferID, Amount: &in.Amount},
	)

	s.emit(ctx, models.TradeEvent{
		Event:         models.EventOfferMade,
		TransactionID: t.TransactionID,
		Code:          t.Code,
		Status:        models.StatusOfferMade,
		OfferID:       &o.OfferID,
		EmittedAt:     time.Now().Unix(),
	})

	return o, nil
}

// AcceptOffer picks the winning offer. The escrow transition is a single-row
// conditional update: under concurrent accepts exactly one call passes it, the
// other sees ErrConflict. The offer settlement and the notification fan-out
// run only after the gate, inside the same request-scoped store transaction.
func (s *LifecycleService) AcceptOffer(ctx context.Context, transactionID, offerID, callerID uuid.UUID) (*models.TransactionDB, error) {
	t, err := s.txReader.GetByID(ctx, transactionID)
	if err != nil {
		logger.Log.Errorw("failed to load transaction", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.UserID != callerID {
		return nil, ErrForbidden
	}

	offer, err := s.offerReader.GetByID(ctx, offerID)
	if err != nil {
		logger.Log.Errorw("failed to load offer", "offer_id", offerID, "error", err)
		return nil, err
	}
	if offer == nil || offer.TransactionID != transactionID {
		return nil, ErrOfferNotFound
	}

	rows, err := s.transactions.AcceptEscrow(ctx, transactionID, offer.UserID)
	if err != nil {
		logger.Log.Errorw("failed to transition to escrow", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	if rows == 0 {
		// Lost the race or the transaction never reached offer_made.
		return nil, ErrConflict
	}

	if _, err := s.offers.Settle(ctx, transactionID, offerID); err != nil {
		logger.Log.Errorw("failed to settle offers", "transaction_id", transactionID, "error", err)
		return nil, err
	}

	siblings, err := s.offerReader.ListByTransaction(ctx, transactionID)
	if err != nil {
		logger.Log.Errorw("failed to list offers for fan-out", "transaction_id", transactionID, "error", err)
		siblings = nil
	}
	for i := range siblings {
		o := &siblings[i]
		if o.OfferID == offerID {
			continue
		}
		s.notify(ctx, o.UserID, models.NotificationOfferRejected, models.SeverityInfo,
			"Offer not selected",
			fmt.Sprintf("Your offer on %s was not selected", t.Code),
			models.NotificationPayload{TransactionID: transactionID, OfferID: &o.OfferID},
		)
	}
	s.notify(ctx, offer.UserID, models.NotificationOfferAccepted, models.SeveritySuccess,
		"Offer accepted",
		fmt.Sprintf("Your offer on %s was accepted, the trade is in escrow", t.Code),
		models.NotificationPayload{TransactionID: transactionID, OfferID: &offerID, Amount: &offer.Amount},
	)

	now := time.Now()
	t.Status = models.StatusEscrow
	t.WinnerUserID = &offer.UserID
	t.ApprovedAt = &now

	s.emit(ctx, models.TradeEvent{
		Event:         models.EventTransactionAccepted,
		TransactionID: transactionID,
		Code:          t.Code,
		Status:        models.StatusEscrow,
		WinnerUserID:  &offer.UserID,
		OfferID:       &offerID,
		EmittedAt:     now.Unix(),
	})

	return t, nil
}

// UploadProof records the payment proof on a sell trade in escrow. Only the
// accepted counterparty may upload. The hash is stored, not verified.
func (s *LifecycleService) UploadProof(ctx context.Context, transactionID, callerID uuid.UUID, fileName, hash string) error {
	t, err := s.txReader.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTransactionNotFound
	}
	if t.TradeType != models.TradeSell {
		return ErrConflict
	}
	if t.WinnerUserID == nil {
		// No accepted counterparty yet, the trade never reached escrow.
		return ErrConflict
	}
	if *t.WinnerUserID != callerID {
		return ErrForbidden
	}

	rows, err := s.transactions.SetProof(ctx, transactionID, fileName, hash)
	if err != nil {
		logger.Log.Errorw("failed to set proof", "transaction_id", transactionID, "error", err)
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	s.emit(ctx, models.TradeEvent{
		Event:         models.EventTransactionUpdated,
		TransactionID: transactionID,
		Code:          t.Code,
		Status:        models.StatusEscrow,
		EmittedAt:     time.Now().Unix(),
	})

	return nil
}

// ValidateTransaction completes an escrow trade. Sell trades require an
// uploaded proof; buy trades have no proof gate.
func (s *LifecycleService) ValidateTransaction(ctx context.Context, transactionID, callerID uuid.UUID) (*models.TransactionDB, error) {
	t, err := s.txReader.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.UserID != callerID {
		return nil, ErrForbidden
	}

	requireProof := t.TradeType == models.TradeSell

	rows, err := s.transactions.Complete(ctx, transactionID, requireProof)
	if err != nil {
		logger.Log.Errorw("failed to complete transaction", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	if rows == 0 {
		if t.Status == models.StatusEscrow && requireProof && !t.ProofUploaded {
			return nil, ErrProofRequired
		}
		return nil, ErrConflict
	}

	if t.WinnerUserID != nil {
		s.notify(ctx, *t.WinnerUserID, models.NotificationTransactionCompleted, models.SeveritySuccess,
			"Trade completed",
			fmt.Sprintf("Trade %s has been validated and completed", t.Code),
			models.NotificationPayload{TransactionID: transactionID},
		)
	}

	now := time.Now()
	t.Status = models.StatusCompleted
	t.CompletedAt = &now

	s.emit(ctx, models.TradeEvent{
		Event:         models.EventTransactionCompleted,
		TransactionID: transactionID,
		Code:          t.Code,
		Status:        models.StatusCompleted,
		WinnerUserID:  t.WinnerUserID,
		EmittedAt:     now.Unix(),
	})

	return t, nil
}

// PatchTransaction updates operator metadata and, when fail is set, moves the
// transaction to failed through the same conditional-update gate as every
// other transition.
func (s *LifecycleService) PatchTransaction(ctx context.Context, transactionID, callerID uuid.UUID, patch models.TransactionMetadataPatch, fail bool) (*models.TransactionDB, error) {
	t, err := s.txReader.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	if t.UserID != callerID {
		return nil, ErrForbidden
	}

	if _, err := s.transactions.UpdateMetadata(ctx, transactionID, patch); err != nil {
		logger.Log.Errorw("failed to patch transaction", "transaction_id", transactionID, "error", err)
		return nil, err
	}

	if fail {
		rows, err := s.transactions.Fail(ctx, transactionID)
		if err != nil {
			logger.Log.Errorw("failed to fail transaction", "transaction_id", transactionID, "error", err)
			return nil, err
		}
		if rows == 0 {
			return nil, ErrConflict
		}
		t.Status = models.StatusFailed

		s.emit(ctx, models.TradeEvent{
			Event:         models.EventTransactionUpdated,
			TransactionID: transactionID,
			Code:          t.Code,
			Status:        models.StatusFailed,
			EmittedAt:     time.Now().Unix(),
		})
	}

	return s.txReader.GetByID(ctx, transactionID)
}

// GetTransaction returns one transaction.
func (s *LifecycleService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.TransactionDB, error) {
	t, err := s.txReader.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// ListTransactions returns transactions matching the filter.
func (s *LifecycleService) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionDB, error) {
	return s.txReader.List(ctx, filter)
}

// ListOffers returns all offers on a transaction.
func (s *LifecycleService) ListOffers(ctx context.Context, transactionID uuid.UUID) ([]models.OfferDB, error) {
	t, err := s.txReader.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return s.offerReader.ListByTransaction(ctx, transactionID)
}

// notify appends one notification record. Emission is best-effort: a failure
// is logged and never aborts the state transition. The insert rides the
// request-scoped store transaction, so a notification can never outlive a
// rolled-back transition.
func (s *LifecycleService) notify(ctx context.Context, userID uuid.UUID, typ, severity, title, message string, payload models.NotificationPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorw("failed to marshal notification payload", "user_id", userID, "error", err)
		return
	}

	n := &models.NotificationDB{
		NotificationID: uuid.New(),
		UserID:         userID,
		Type:           typ,
		Title:          title,
		Message:        message,
		Severity:       severity,
		Source:         "lifecycle",
		Payload:        data,
	}

	if err := s.notifier.Save(ctx, n); err != nil {
		logger.Log.Errorw("failed to save notification", "user_id", userID, "type", typ, "error", err)
	}
}

// emit broadcasts the event on the in-process bus and exports it to Kafka.
// Both paths are best-effort.
func (s *LifecycleService) emit(ctx context.Context, ev models.TradeEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}

	if s.kafkaWriter == nil {
		logger.Log.Warnw("kafka writer not configured, skipping export", "event", ev.Event, "transaction_id", ev.TransactionID)
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		logger.Log.Errorw("failed to marshal trade event", "event", ev.Event, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(ev.TransactionID.String()),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to export trade event to kafka", "event", ev.Event, "transaction_id", ev.TransactionID, "error", err)
	}
}
