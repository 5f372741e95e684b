// Package lookup orchestrates a threat-intelligence submission: validate,
// gate on quota, fetch from the provider, score, summarize, persist.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/threatscope/threatscope/internal/models"
	"github.com/threatscope/threatscope/internal/provider"
	"github.com/threatscope/threatscope/internal/quota"
	"github.com/threatscope/threatscope/internal/score"
	"github.com/threatscope/threatscope/internal/store"
	"github.com/threatscope/threatscope/internal/summarizer"
	"gorm.io/datatypes"
)

// ProviderClient fetches the raw provider document for an indicator.
type ProviderClient interface {
	Fetch(ctx context.Context, query string, queryType provider.QueryType) (json.RawMessage, error)
}

// Result is the envelope returned for an accepted submission.
type Result struct {
	LookupID     string          `json:"lookupId"`
	Score        int             `json:"score"`
	ProviderData json.RawMessage `json:"providerData"`
	Summary      string          `json:"summary"`
}

// Service runs the submission pipeline. All collaborators arrive through
// the constructor; there is no ambient state.
type Service struct {
	quota      quota.Manager
	provider   ProviderClient
	summarizer summarizer.Summarizer
	store      store.LookupStore

	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(quotaManager quota.Manager, providerClient ProviderClient, textSummarizer summarizer.Summarizer, lookupStore store.LookupStore) *Service {
	return &Service{
		quota:      quotaManager,
		provider:   providerClient,
		summarizer: textSummarizer,
		store:      lookupStore,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Submit runs one lookup for the authenticated user. Each step
// short-circuits on failure; the quota decision is finalized before any
// network call begins, so provider latency never holds quota state.
func (s *Service) Submit(ctx context.Context, userID uint64, query, rawType string) (*Result, error) {
	queryType, ok := provider.ParseQueryType(rawType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported query type %q", ErrInvalidInput, rawType)
	}
	if errValidate := ValidateQuery(query, queryType); errValidate != nil {
		return nil, errValidate
	}

	allowed, errConsume := s.quota.TryConsume(ctx, userID)
	if errConsume != nil {
		// Fails closed: an unreachable quota store is never an allow.
		return nil, errConsume
	}
	if !allowed {
		return nil, ErrQuotaExceeded
	}

	doc, errFetch := s.provider.Fetch(ctx, query, queryType)
	if errFetch != nil {
		if errors.Is(errFetch, provider.ErrUpstreamTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, errFetch)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, errFetch)
	}

	riskScore := score.Compute(provider.ExtractStats(doc))

	summary, errSummarize := s.summarizer.Summarize(ctx, doc)
	if errSummarize != nil {
		// The summary is part of the persisted record, not optional.
		return nil, fmt.Errorf("%w: summarize: %v", ErrUpstream, errSummarize)
	}

	record := &models.Lookup{
		ID:           s.newID(),
		UserID:       userID,
		Query:        query,
		QueryType:    string(queryType),
		Score:        riskScore,
		ProviderData: datatypes.JSON(doc),
		Summary:      summary,
		CreatedAt:    s.now().UTC(),
	}
	if errCreate := s.store.Create(ctx, record); errCreate != nil {
		// The quota slot stays consumed: refunding would need a second
		// atomic section that reopens the double-spend window the
		// consume CAS closes. Provider and summarizer cost is wasted,
		// which is why this logs at error level.
		log.WithError(errCreate).WithFields(log.Fields{
			"user_id":    userID,
			"query_type": queryType,
		}).Error("lookup persisted quota and provider cost but failed to write record")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, errCreate)
	}

	return &Result{
		LookupID:     record.ID,
		Score:        riskScore,
		ProviderData: doc,
		Summary:      summary,
	}, nil
}
