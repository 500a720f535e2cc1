package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/Veraticus/accusync/internal/catalog"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/pattern"
)

// MockCall records one call made to a mock collaborator.
type MockCall struct {
	Method string
	Args   []string
}

type callRecorder struct {
	calls []MockCall
	mu    sync.Mutex
}

func (r *callRecorder) record(method string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls for verification in tests.
func (r *callRecorder) GetCalls() []MockCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]MockCall, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CallCount returns the number of calls to method.
func (r *callRecorder) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// MockPatternStore is a test implementation of PatternStore. Predict returns
// the first rule whose fragment the text contains.
type MockPatternStore struct {
	LearnErr error
	rules    []pattern.Prediction
	learned  []pattern.LearnRequest
	callRecorder
}

// NewMockPatternStore creates an empty mock store.
func NewMockPatternStore() *MockPatternStore {
	return &MockPatternStore{}
}

// Add makes texts containing fragment predict value.
func (m *MockPatternStore) Add(fragment, value, auxiliary string, source model.PatternSource) *MockPatternStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, pattern.Prediction{
		Pattern:    fragment,
		Value:      value,
		Auxiliary:  auxiliary,
		Source:     source,
		Confidence: source.StartConfidence(),
	})
	return m
}

// Predict returns the first matching rule. Rules whose auxiliary equals the
// filter are tried first.
func (m *MockPatternStore) Predict(_ context.Context, text, auxiliaryFilter string) *pattern.Prediction {
	m.record("Predict", text, auxiliaryFilter)

	m.mu.Lock()
	defer m.mu.Unlock()

	if auxiliaryFilter != "" {
		for _, r := range m.rules {
			if r.Auxiliary == auxiliaryFilter && strings.Contains(text, r.Pattern) {
				p := r
				p.Filtered = true
				return &p
			}
		}
	}
	for _, r := range m.rules {
		if strings.Contains(text, r.Pattern) {
			p := r
			return &p
		}
	}
	return nil
}

// Learn records the request.
func (m *MockPatternStore) Learn(_ context.Context, req pattern.LearnRequest) (*model.LearnedPattern, error) {
	m.record("Learn", req.SourceText, req.TargetValue, req.Auxiliary)
	if m.LearnErr != nil {
		return nil, m.LearnErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.learned = append(m.learned, req)
	return &model.LearnedPattern{
		ID:          int64(len(m.learned)),
		Pattern:     req.SourceText,
		TargetValue: req.TargetValue,
		Auxiliary:   req.Auxiliary,
		Source:      req.Source,
		Confidence:  req.Source.StartConfidence(),
		UsageCount:  1,
	}, nil
}

// Learned returns the recorded learn requests.
func (m *MockPatternStore) Learned() []pattern.LearnRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	learned := make([]pattern.LearnRequest, len(m.learned))
	copy(learned, m.learned)
	return learned
}

// MockCatalog is a test implementation of Catalog keyed on exact codes.
type MockCatalog struct {
	ProductTypes       map[string]catalog.Hit
	RemoteProductTypes map[string]catalog.Hit
	Devices            map[string]catalog.Hit
	callRecorder
}

// NewMockCatalog creates an empty mock catalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		ProductTypes:       map[string]catalog.Hit{},
		RemoteProductTypes: map[string]catalog.Hit{},
		Devices:            map[string]catalog.Hit{},
	}
}

// LocalProductType looks code up in ProductTypes.
func (m *MockCatalog) LocalProductType(_ context.Context, code string) (catalog.Hit, bool) {
	m.record("LocalProductType", code)
	hit, ok := m.ProductTypes[code]
	return hit, ok
}

// RemoteProductType looks code up in RemoteProductTypes.
func (m *MockCatalog) RemoteProductType(_ context.Context, code string) (catalog.Hit, bool) {
	m.record("RemoteProductType", code)
	hit, ok := m.RemoteProductTypes[code]
	return hit, ok
}

// LookupDevice looks code up in Devices.
func (m *MockCatalog) LookupDevice(_ context.Context, code string) (catalog.Hit, bool) {
	m.record("LookupDevice", code)
	hit, ok := m.Devices[code]
	return hit, ok
}

// MockInventory is a test implementation of Inventory. Err is returned by
// every call when set.
type MockInventory struct {
	Err          error
	SKUSizes     map[string]string
	ProductSizes map[string]string
	DeviceSizes  map[string]string
	ProductTypes map[string]string
	callRecorder
}

// NewMockInventory creates an empty mock inventory.
func NewMockInventory() *MockInventory {
	return &MockInventory{
		SKUSizes:     map[string]string{},
		ProductSizes: map[string]string{},
		DeviceSizes:  map[string]string{},
		ProductTypes: map[string]string{},
	}
}

// SizeBySKU looks sku up in SKUSizes.
func (m *MockInventory) SizeBySKU(_ context.Context, sku string) (string, error) {
	m.record("SizeBySKU", sku)
	return m.SKUSizes[sku], m.Err
}

// SizeByProductNumber looks productNumber up in ProductSizes.
func (m *MockInventory) SizeByProductNumber(_ context.Context, productNumber string) (string, error) {
	m.record("SizeByProductNumber", productNumber)
	return m.ProductSizes[productNumber], m.Err
}

// SizeByDevice looks device up in DeviceSizes.
func (m *MockInventory) SizeByDevice(_ context.Context, brand, device string) (string, error) {
	m.record("SizeByDevice", brand, device)
	return m.DeviceSizes[device], m.Err
}

// ProductTypeByCode looks code up in ProductTypes.
func (m *MockInventory) ProductTypeByCode(_ context.Context, code string) (string, error) {
	m.record("ProductTypeByCode", code)
	return m.ProductTypes[code], m.Err
}

// MockMaster is a test implementation of SizeMaster keyed on device names.
type MockMaster struct {
	Sizes map[string]string
	callRecorder
}

// GetSize looks device up in Sizes.
func (m *MockMaster) GetSize(_ context.Context, brand, device string) (string, string, bool) {
	m.record("GetSize", brand, device)
	size, ok := m.Sizes[device]
	return size, "mock", ok
}
