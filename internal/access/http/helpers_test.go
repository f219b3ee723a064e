package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	auditUseCase "github.com/allisson/compliance/internal/audit/usecase"
)

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

// attachIdentity stores an identity on the test context's request.
func attachIdentity(c *gin.Context, identity *accessDomain.Identity) {
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
}

// memoryCatalogRepository is an in-memory catalog store for handler tests.
type memoryCatalogRepository struct {
	saved   *accessDomain.Catalog
	saveErr error
}

func (m *memoryCatalogRepository) Load(_ context.Context) (*accessDomain.Catalog, error) {
	if m.saved == nil {
		return &accessDomain.Catalog{
			Permissions: []*accessDomain.Permission{},
			Roles:       map[accessDomain.Role][]string{},
		}, nil
	}
	return m.saved.Clone(), nil
}

func (m *memoryCatalogRepository) Save(_ context.Context, catalog *accessDomain.Catalog) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = catalog.Clone()
	return nil
}

// capturingAuditTrail records logged entries so tests can assert on the
// audit side effects of HTTP operations.
type capturingAuditTrail struct {
	mu      sync.Mutex
	entries []*auditDomain.EntryInput
	reads   []auditUseCase.DataAccess
}

func (a *capturingAuditTrail) LogEntry(_ context.Context, input *auditDomain.EntryInput) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, input)
	return "entry-id"
}

func (a *capturingAuditTrail) LogDataAccess(_ context.Context, access auditUseCase.DataAccess) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads = append(a.reads, access)
	return "entry-id"
}

func (a *capturingAuditTrail) ListEntries(
	_ context.Context,
	_ *auditDomain.EntryFilter,
) ([]*auditDomain.Entry, error) {
	return nil, nil
}

func (a *capturingAuditTrail) Stats(_ context.Context) (*auditDomain.Stats, error) {
	return &auditDomain.Stats{}, nil
}

func (a *capturingAuditTrail) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (a *capturingAuditTrail) lastEntry() *auditDomain.EntryInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return nil
	}
	return a.entries[len(a.entries)-1]
}

func (a *capturingAuditTrail) entryCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
