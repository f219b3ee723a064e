package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	auditService "github.com/allisson/compliance/internal/audit/service"
	"github.com/allisson/compliance/internal/database"
	"github.com/allisson/compliance/internal/encryption"
	"github.com/allisson/compliance/internal/httputil"
)

// auditTrailUseCase implements AuditTrailUseCase.
type auditTrailUseCase struct {
	classifier     auditService.Classifier
	entryRepo      EntryRepository
	entryWriter    EntryWriter
	stateEncryptor encryption.StateEncryptor
	txManager      database.TxManager
	logger         *slog.Logger
}

// NewAuditTrailUseCase creates a new AuditTrailUseCase.
func NewAuditTrailUseCase(
	classifier auditService.Classifier,
	entryRepo EntryRepository,
	entryWriter EntryWriter,
	stateEncryptor encryption.StateEncryptor,
	txManager database.TxManager,
	logger *slog.Logger,
) AuditTrailUseCase {
	return &auditTrailUseCase{
		classifier:     classifier,
		entryRepo:      entryRepo,
		entryWriter:    entryWriter,
		stateEncryptor: stateEncryptor,
		txManager:      txManager,
		logger:         logger,
	}
}

// LogEntry assigns identity and timestamp, fills missing classification fields
// from the rule engine, seals state snapshots and enqueues the entry. The
// caller is never failed: errors on this path are logged and absorbed.
func (uc *auditTrailUseCase) LogEntry(ctx context.Context, input *auditDomain.EntryInput) string {
	if input == nil {
		input = &auditDomain.EntryInput{}
	}

	entryID := uuid.Must(uuid.NewV7()).String()
	derived := uc.classifier.Classify(input.Method, input.Endpoint, input.UserRole)

	entry := &auditDomain.Entry{
		ID:             entryID,
		Timestamp:      time.Now().UTC(),
		UserID:         input.UserID,
		UserName:       input.UserName,
		UserRole:       input.UserRole,
		SessionID:      input.SessionID,
		Action:         input.Action,
		Resource:       input.Resource,
		ResourceID:     input.ResourceID,
		ResourceType:   input.ResourceType,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		Endpoint:       input.Endpoint,
		Method:         input.Method,
		StatusCode:     input.StatusCode,
		Description:    input.Description,
		Metadata:       input.Metadata,
		CorrelationID:  input.CorrelationID,
		ParentActionID: input.ParentActionID,
	}

	// Caller-supplied classification wins; anything missing is derived.
	if entry.Action == "" {
		entry.Action = derived.Action
	}
	if entry.Resource == "" {
		entry.Resource = derived.Resource
	}
	if entry.ResourceType == "" {
		entry.ResourceType = derived.ResourceType
	}
	entry.RiskLevel = input.RiskLevel
	if !entry.RiskLevel.IsValid() {
		entry.RiskLevel = derived.RiskLevel
	}
	entry.DataClassification = input.DataClassification
	if !entry.DataClassification.IsValid() {
		entry.DataClassification = derived.DataClassification
	}
	if input.ComplianceRelevant != nil {
		entry.ComplianceRelevant = *input.ComplianceRelevant
	} else {
		entry.ComplianceRelevant = derived.ComplianceRelevant
	}
	entry.Tags = mergeTags(input.Tags, derived.Tags)

	entry.BeforeState = uc.sealState(input.BeforeState, entryID, "before_state")
	entry.AfterState = uc.sealState(input.AfterState, entryID, "after_state")

	uc.entryWriter.Enqueue(entry)
	return entryID
}

// LogDataAccess records a read of a sensitive surface through the regular
// logging path.
func (uc *auditTrailUseCase) LogDataAccess(ctx context.Context, access DataAccess) string {
	return uc.LogEntry(ctx, &auditDomain.EntryInput{
		UserID:      access.UserID,
		UserName:    access.UserName,
		UserRole:    access.UserRole,
		SessionID:   access.SessionID,
		Method:      access.Method,
		Endpoint:    access.Endpoint,
		IPAddress:   access.IPAddress,
		UserAgent:   access.UserAgent,
		Description: access.Details,
	})
}

// ListEntries normalizes pagination, queries the store and opens sealed state
// snapshots. An entry whose snapshot cannot be opened is returned sealed
// rather than dropped.
func (uc *auditTrailUseCase) ListEntries(
	ctx context.Context,
	filter *auditDomain.EntryFilter,
) ([]*auditDomain.Entry, error) {
	if filter == nil {
		filter = &auditDomain.EntryFilter{}
	}
	filter.Limit = httputil.NormalizeLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	entries, err := uc.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		entry.BeforeState = uc.openState(entry.BeforeState, entry.ID, "before_state")
		entry.AfterState = uc.openState(entry.AfterState, entry.ID, "after_state")
	}
	return entries, nil
}

// Stats aggregates the whole trail.
func (uc *auditTrailUseCase) Stats(ctx context.Context) (*auditDomain.Stats, error) {
	return uc.entryRepo.Stats(ctx)
}

// DeleteOlderThan removes entries older than the cutoff in one transaction.
func (uc *auditTrailUseCase) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		count, err := uc.entryRepo.CountOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		deleted, err = uc.entryRepo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}

		uc.logger.Info("audit entries removed by retention",
			slog.Time("cutoff", cutoff),
			slog.Int64("deleted", deleted),
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// sealState encrypts a state snapshot, binding it to the entry and field. A
// snapshot that cannot be sealed is withheld entirely instead of stored in
// plaintext.
func (uc *auditTrailUseCase) sealState(state map[string]any, entryID, field string) map[string]any {
	sealed, err := uc.stateEncryptor.Seal(state, entryID+":"+field)
	if err != nil {
		uc.logger.Error("failed to seal state snapshot, withholding it",
			slog.String("entry_id", entryID),
			slog.String("field", field),
			slog.Any("error", err),
		)
		return nil
	}
	return sealed
}

// openState decrypts a state snapshot for query responses.
func (uc *auditTrailUseCase) openState(state map[string]any, entryID, field string) map[string]any {
	opened, err := uc.stateEncryptor.Open(state, entryID+":"+field)
	if err != nil {
		uc.logger.Warn("failed to open state snapshot, returning it sealed",
			slog.String("entry_id", entryID),
			slog.String("field", field),
			slog.Any("error", err),
		)
		return state
	}
	return opened
}

// mergeTags deduplicates and sorts the union of caller and derived tags.
func mergeTags(callerTags, derivedTags []string) []string {
	set := make(map[string]bool, len(callerTags)+len(derivedTags))
	for _, tag := range callerTags {
		if tag != "" {
			set[tag] = true
		}
	}
	for _, tag := range derivedTags {
		set[tag] = true
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
