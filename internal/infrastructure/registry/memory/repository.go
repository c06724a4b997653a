// Package memory is the in-memory case registry. Durable persistence is
// explicitly out of scope for this service; the registry lives and dies with
// the process.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

const defaultServiceLevel = "48h"

type Repository struct {
	mu    sync.RWMutex
	cases map[string]domain.Case
	order map[string]int
	seq   int

	now func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		cases: make(map[string]domain.Case),
		order: make(map[string]int),
		now:   time.Now,
	}
}

func (r *Repository) Create(_ context.Context, c *domain.Case) error {
	if c == nil {
		return domain.WrapError(domain.ErrInvalidInput, "create case", errors.New("case is nil"))
	}
	if strings.TrimSpace(c.ApplicantName) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create case", errors.New("applicant name is required"))
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.CaseStatusNew
	}
	if c.ServiceLevel == "" {
		c.ServiceLevel = defaultServiceLevel
	}
	if c.SubmissionDate == "" {
		c.SubmissionDate = r.now().UTC().Format("2006-01-02")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.ID]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "create case", errors.New("case id already exists"))
	}
	r.seq++
	r.cases[c.ID] = *c
	r.order[c.ID] = r.seq
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", errors.New(id))
	}
	out := c
	return &out, nil
}

// List returns cases newest-first.
func (r *Repository) List(_ context.Context) ([]domain.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Case, 0, len(r.cases))
	for _, c := range r.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out, nil
}

func (r *Repository) UpdateStatus(_ context.Context, id string, status domain.CaseStatus) error {
	if !status.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "update case status", errors.New(string(status)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "update case status", errors.New(id))
	}
	c.Status = status
	r.cases[id] = c
	return nil
}

func (r *Repository) UpdateRiskScore(_ context.Context, id string, score int) error {
	if score < 0 || score > 100 {
		return domain.WrapError(domain.ErrInvalidInput, "update risk score", errors.New("score must be 0-100"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "update risk score", errors.New(id))
	}
	c.RiskScore = score
	r.cases[id] = c
	return nil
}

// SeedDemoCases loads the demo fixtures used by the review UI in local
// environments.
func (r *Repository) SeedDemoCases(ctx context.Context) error {
	seed := []domain.Case{
		{
			ID:             "CS-2025-001",
			ApplicantName:  "Jan Kowalski",
			ApplicantPESEL: "85010112345",
			AccidentDate:   "2025-05-12",
			BusinessType:   "Usługi Budowlane",
			Status:         domain.CaseStatusNew,
			SubmissionDate: "2025-05-14",
		},
		{
			ID:             "CS-2025-002",
			ApplicantName:  "Anna Nowak",
			ApplicantPESEL: "92031554321",
			AccidentDate:   "2025-05-10",
			BusinessType:   "Programowanie",
			Status:         domain.CaseStatusAnalyzing,
			SubmissionDate: "2025-05-11",
			RiskScore:      35,
		},
		{
			ID:             "CS-2025-003",
			ApplicantName:  "Marek Zając",
			ApplicantPESEL: "78112009876",
			AccidentDate:   "2025-04-28",
			BusinessType:   "Transport Drogowy",
			Status:         domain.CaseStatusOpinionDraft,
			SubmissionDate: "2025-05-01",
			RiskScore:      80,
		},
		{
			ID:             "CS-2025-004",
			ApplicantName:  "Ewa Wiśniewska",
			ApplicantPESEL: "88070711223",
			AccidentDate:   "2025-05-05",
			BusinessType:   "Fryzjerstwo",
			Status:         domain.CaseStatusCardReady,
			SubmissionDate: "2025-05-06",
			RiskScore:      10,
		},
	}

	for i := range seed {
		if err := r.Create(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}
