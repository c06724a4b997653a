package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

type fakeStateStore struct {
	mu      sync.Mutex
	states  map[string]domain.AnalysisState
	history []domain.AnalysisState
	deletes int
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]domain.AnalysisState)}
}

func (s *fakeStateStore) Get(caseID string) (domain.AnalysisState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[caseID]
	return state, ok
}

func (s *fakeStateStore) Put(caseID string, state domain.AnalysisState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[caseID] = state
	s.history = append(s.history, state)
}

func (s *fakeStateStore) Delete(caseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, caseID)
	s.deletes++
}

func (s *fakeStateStore) Watch(ctx context.Context, caseID string) <-chan domain.AnalysisState {
	ch := make(chan domain.AnalysisState)
	close(ch)
	return ch
}

func (s *fakeStateStore) snapshotHistory() []domain.AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnalysisState, len(s.history))
	copy(out, s.history)
	return out
}

type fakeExtractor struct {
	mu    sync.Mutex
	texts map[string]string
	err   error
	calls []string
}

func (e *fakeExtractor) Extract(_ context.Context, doc domain.UploadedDocument) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, doc.Name)
	e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	return e.texts[doc.Name], nil
}

type fakeAnalyzer struct {
	mu            sync.Mutex
	analysis      domain.LegalAnalysis
	err           error
	receivedTexts []string
	calls         int

	started chan struct{}
	release chan struct{}
}

func (a *fakeAnalyzer) Analyze(_ context.Context, _ domain.AnalysisInput, extractedTexts []string) (domain.LegalAnalysis, error) {
	a.mu.Lock()
	a.calls++
	a.receivedTexts = append([]string(nil), extractedTexts...)
	a.mu.Unlock()
	if a.started != nil {
		a.started <- struct{}{}
		<-a.release
	}
	return a.analysis, a.err
}

type fakeScorer struct {
	mu          sync.Mutex
	calculation domain.Calculation
	err         error
	calls       int
}

func (s *fakeScorer) Score(_ context.Context, _ domain.LegalAnalysis) (domain.Calculation, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.calculation, s.err
}

func allTrueAnalysis() domain.LegalAnalysis {
	return domain.LegalAnalysis{
		IdentifiedDocuments: []string{"Zgłoszenie wypadku"},
		Summary:             "Upadek z drabiny podczas prac na budowie.",
		Criteria: domain.Criteria{
			Suddenness:     domain.VerdictTrue,
			ExternalCause:  domain.VerdictTrue,
			Injury:         domain.VerdictTrue,
			WorkConnection: domain.VerdictTrue,
		},
	}
}

func docsInput(t *testing.T, docs ...domain.UploadedDocument) domain.AnalysisInput {
	t.Helper()
	input, err := domain.NewAnalysisInput(docs, "")
	if err != nil {
		t.Fatalf("build input: %v", err)
	}
	return input
}

func TestStartPublishesStageCheckpoints(t *testing.T) {
	store := newFakeStateStore()
	extractor := &fakeExtractor{texts: map[string]string{
		"zgloszenie.pdf": "treść zgłoszenia",
		"zwolnienie.jpg": "treść zwolnienia",
	}}
	analyzer := &fakeAnalyzer{analysis: allTrueAnalysis()}
	scorer := &fakeScorer{calculation: domain.Calculation{
		ConfidenceScore:     95,
		RecommendationShort: domain.RecommendationAccept,
		ReasoningShort:      "Wszystkie przesłanki spełnione.",
	}}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t,
		domain.UploadedDocument{Name: "zgloszenie.pdf", Type: "application/pdf", Content: []byte("x")},
		domain.UploadedDocument{Name: "zwolnienie.jpg", Type: "image/jpeg", Content: []byte("y")},
	)

	final, err := uc.Start(context.Background(), "CS-1", input)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	history := store.snapshotHistory()
	wantSteps := []domain.AnalysisStep{
		domain.StepUploading,
		domain.StepOCRProcessing,
		domain.StepLegalAnalysis,
		domain.StepCalculatingConfidence,
		domain.StepComplete,
	}
	wantProgress := []int{10, 30, 50, 85, 100}
	if len(history) != len(wantSteps) {
		t.Fatalf("expected %d published states, got %d", len(wantSteps), len(history))
	}
	for i, state := range history {
		if state.Step != wantSteps[i] {
			t.Fatalf("state %d: expected step %s, got %s", i, wantSteps[i], state.Step)
		}
		if state.Progress != wantProgress[i] {
			t.Fatalf("state %d: expected progress %d, got %d", i, wantProgress[i], state.Progress)
		}
		if i > 0 && state.Progress < history[i-1].Progress {
			t.Fatalf("progress went backwards at state %d", i)
		}
		if state.Step != domain.StepComplete && state.Result != nil {
			t.Fatalf("non-terminal state %d carries a result", i)
		}
	}

	if final.Result == nil {
		t.Fatal("final state has no result")
	}
	if final.Result.ProcessedFilesCount != 2 {
		t.Fatalf("expected 2 processed files, got %d", final.Result.ProcessedFilesCount)
	}
	if final.Result.Calculation.ConfidenceScore != 95 {
		t.Fatalf("expected confidence 95, got %d", final.Result.Calculation.ConfidenceScore)
	}
	if len(final.Files) != 2 || final.Files[0].Name != "zgloszenie.pdf" {
		t.Fatalf("unexpected file metadata: %+v", final.Files)
	}
	if got := analyzer.receivedTexts; len(got) != 2 || got[0] != "treść zgłoszenia" {
		t.Fatalf("analyzer received wrong texts: %v", got)
	}
}

func TestStartRejectsEmptyInput(t *testing.T) {
	store := newFakeStateStore()
	extractor := &fakeExtractor{}
	analyzer := &fakeAnalyzer{}
	scorer := &fakeScorer{}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	_, err := uc.Start(context.Background(), "CS-1", domain.AnalysisInput{})
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected empty-input error, got %v", err)
	}
	if len(extractor.calls) != 0 || analyzer.calls != 0 || scorer.calls != 0 {
		t.Fatal("no adapter should be called for empty input")
	}
	if len(store.snapshotHistory()) != 0 {
		t.Fatal("no state should be published for empty input")
	}
}

func TestStartPassesPlaceholderTextThrough(t *testing.T) {
	placeholder := "[Błąd: Przekroczono czas oczekiwania na OCR (dokument zbyt złożony lub nieczytelny). Wymagana weryfikacja ręczna.]"
	store := newFakeStateStore()
	extractor := &fakeExtractor{texts: map[string]string{"skan.jpg": placeholder}}
	analyzer := &fakeAnalyzer{analysis: allTrueAnalysis()}
	scorer := &fakeScorer{calculation: domain.Calculation{ConfidenceScore: 91, RecommendationShort: domain.RecommendationAccept}}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t, domain.UploadedDocument{Name: "skan.jpg", Type: "image/jpeg", Content: []byte("x")})
	final, err := uc.Start(context.Background(), "CS-1", input)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if final.Step != domain.StepComplete {
		t.Fatalf("expected complete, got %s", final.Step)
	}
	if got := analyzer.receivedTexts[0]; got != placeholder {
		t.Fatalf("placeholder text was not passed through, got %q", got)
	}
}

func TestStartAfterCompleteReplacesPriorResult(t *testing.T) {
	store := newFakeStateStore()
	extractor := &fakeExtractor{texts: map[string]string{"skan.jpg": "tekst"}}
	analyzer := &fakeAnalyzer{analysis: allTrueAnalysis()}
	scorer := &fakeScorer{calculation: domain.Calculation{ConfidenceScore: 95, RecommendationShort: domain.RecommendationAccept}}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t, domain.UploadedDocument{Name: "skan.jpg", Type: "image/jpeg", Content: []byte("x")})
	if _, err := uc.Start(context.Background(), "CS-1", input); err != nil {
		t.Fatalf("first start: %v", err)
	}

	scorer.mu.Lock()
	scorer.calculation = domain.Calculation{ConfidenceScore: 40, RecommendationShort: domain.RecommendationNeedsClarification}
	scorer.mu.Unlock()

	final, err := uc.Start(context.Background(), "CS-1", input)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if final.Step != domain.StepComplete || final.Result == nil {
		t.Fatalf("expected complete second run, got %+v", final)
	}
	if final.Result.Calculation.ConfidenceScore != 40 {
		t.Fatalf("prior result must be replaced, got score %d", final.Result.Calculation.ConfidenceScore)
	}

	// The second run transitions through the whole machine again, and the
	// case ends with exactly the new state.
	history := store.snapshotHistory()
	if len(history) != 10 {
		t.Fatalf("expected two full runs in history, got %d states", len(history))
	}
	if history[5].Step != domain.StepUploading || history[5].Progress != 10 {
		t.Fatalf("second run must restart at uploading, got %+v", history[5])
	}
	current, ok := store.Get("CS-1")
	if !ok || current.Result == nil || current.Result.Calculation.ConfidenceScore != 40 {
		t.Fatalf("store must hold only the new result, got %+v", current)
	}
}

func TestStartIsolatesFaultToFailedDocument(t *testing.T) {
	placeholder := "[Błąd: Przekroczono czas oczekiwania na OCR (dokument zbyt złożony lub nieczytelny). Wymagana weryfikacja ręczna.]"
	store := newFakeStateStore()
	extractor := &fakeExtractor{texts: map[string]string{
		"nieczytelny.jpg": placeholder,
		"zgloszenie.pdf":  "treść zgłoszenia",
		"zeznanie.txt":    "zeznanie świadka",
	}}
	analyzer := &fakeAnalyzer{analysis: allTrueAnalysis()}
	scorer := &fakeScorer{calculation: domain.Calculation{ConfidenceScore: 91, RecommendationShort: domain.RecommendationAccept}}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t,
		domain.UploadedDocument{Name: "nieczytelny.jpg", Type: "image/jpeg", Content: []byte("x")},
		domain.UploadedDocument{Name: "zgloszenie.pdf", Type: "application/pdf", Content: []byte("y")},
		domain.UploadedDocument{Name: "zeznanie.txt", Type: "text/plain", Content: []byte("z")},
	)
	final, err := uc.Start(context.Background(), "CS-1", input)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if final.Step != domain.StepComplete {
		t.Fatalf("one bad document must not abort the run, got %s", final.Step)
	}
	if final.Result.ProcessedFilesCount != 3 {
		t.Fatalf("expected 3 processed files, got %d", final.Result.ProcessedFilesCount)
	}

	want := []string{placeholder, "treść zgłoszenia", "zeznanie świadka"}
	if len(analyzer.receivedTexts) != len(want) {
		t.Fatalf("expected %d texts, got %d", len(want), len(analyzer.receivedTexts))
	}
	for i, text := range want {
		if analyzer.receivedTexts[i] != text {
			t.Fatalf("text %d: expected %q, got %q", i, text, analyzer.receivedTexts[i])
		}
	}
}

func TestStartFailsOnExtractionTransportError(t *testing.T) {
	store := newFakeStateStore()
	extractor := &fakeExtractor{err: errors.New("connection refused")}
	analyzer := &fakeAnalyzer{}
	scorer := &fakeScorer{}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t, domain.UploadedDocument{Name: "skan.jpg", Type: "image/jpeg", Content: []byte("x")})
	final, err := uc.Start(context.Background(), "CS-1", input)
	if err == nil {
		t.Fatal("expected an error")
	}
	if final.Step != domain.StepError || final.Progress != 0 {
		t.Fatalf("expected error state with progress 0, got %s/%d", final.Step, final.Progress)
	}
	if final.Error == "" {
		t.Fatal("error state must carry a message")
	}
	if analyzer.calls != 0 || scorer.calls != 0 {
		t.Fatal("later stages must not run after an extraction failure")
	}
}

func TestStartWrapsScoringFailure(t *testing.T) {
	store := newFakeStateStore()
	extractor := &fakeExtractor{texts: map[string]string{"skan.jpg": "tekst"}}
	analyzer := &fakeAnalyzer{analysis: allTrueAnalysis()}
	scorer := &fakeScorer{err: errors.New("model unavailable")}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t, domain.UploadedDocument{Name: "skan.jpg", Type: "image/jpeg", Content: []byte("x")})
	final, err := uc.Start(context.Background(), "CS-1", input)
	if !domain.IsKind(err, domain.ErrScoring) {
		t.Fatalf("expected scoring error kind, got %v", err)
	}
	if final.Step != domain.StepError {
		t.Fatalf("expected error state, got %s", final.Step)
	}
}

func TestResetSupersedesInFlightRun(t *testing.T) {
	store := newFakeStateStore()
	extractor := &fakeExtractor{texts: map[string]string{"skan.jpg": "tekst"}}
	analyzer := &fakeAnalyzer{
		analysis: allTrueAnalysis(),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	scorer := &fakeScorer{calculation: domain.Calculation{ConfidenceScore: 95, RecommendationShort: domain.RecommendationAccept}}
	uc := NewAnalyzeCaseUseCase(store, extractor, analyzer, scorer, nil, nil)

	input := docsInput(t, domain.UploadedDocument{Name: "skan.jpg", Type: "image/jpeg", Content: []byte("x")})
	errCh := make(chan error, 1)
	go func() {
		_, err := uc.Start(context.Background(), "CS-1", input)
		errCh <- err
	}()

	<-analyzer.started
	uc.Reset("CS-1")
	close(analyzer.release)

	if err := <-errCh; !errors.Is(err, ErrRunSuperseded) {
		t.Fatalf("expected superseded error, got %v", err)
	}
	if _, ok := store.Get("CS-1"); ok {
		t.Fatal("stale run must not resurrect state after reset")
	}
	if scorer.calls != 0 {
		t.Fatal("superseded run must stop before scoring")
	}
}

func TestStateReturnsIdleWhenUnknown(t *testing.T) {
	uc := NewAnalyzeCaseUseCase(newFakeStateStore(), &fakeExtractor{}, &fakeAnalyzer{}, &fakeScorer{}, nil, nil)

	state := uc.State("missing")
	if state.Step != domain.StepIdle || state.Progress != 0 {
		t.Fatalf("expected idle state, got %+v", state)
	}
}
