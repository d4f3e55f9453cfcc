package hierarchy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(f *serviceFixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Configuration{App: config.Application{Timeout: 5}}
	h := NewHandler(cfg, f.svc, func(token string) Backend { return f.api })

	router := gin.New()
	router.PUT("/officials/:id", h.UpdateOfficial)
	router.GET("/officials", h.ListOfficials)
	router.GET("/officials/:id/reassignments", h.ListReassignments)
	return router
}

func TestUpdateOfficialHandler_ReportsPartialFailures(t *testing.T) {
	f := newServiceFixture()
	f.api.officials = []models.StructuralOfficial{slot()}
	f.api.subordinates[outgoingEmployee] = []models.Subordinate{
		{EmployeeID: 71, Division: division},
		{EmployeeID: 72, Division: division},
	}
	f.api.failAssignFor[72] = true
	router := newTestRouter(f)

	body, _ := json.Marshal(handover())
	req := httptest.NewRequest(http.MethodPut, "/officials/1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Data    Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Reassigned, 1)
	require.Len(t, resp.Data.Failures, 1)
	assert.Equal(t, int64(72), resp.Data.Failures[0].EmployeeID)
}

func putHandover(ctx context.Context, router *gin.Engine) *httptest.ResponseRecorder {
	body, _ := json.Marshal(handover())
	req := httptest.NewRequest(http.MethodPut, "/officials/1", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateOfficialHandler_SlowBackendRepointsEverySubordinate(t *testing.T) {
	f := newServiceFixture()
	f.api.officials = []models.StructuralOfficial{slot()}
	for emp := int64(31); emp <= 35; emp++ {
		f.api.subordinates[outgoingEmployee] = append(f.api.subordinates[outgoingEmployee],
			models.Subordinate{EmployeeID: emp, Division: division})
	}
	f.api.assignDelay = 250 * time.Millisecond

	gin.SetMode(gin.TestMode)
	cfg := &config.Configuration{App: config.Application{Timeout: 1}}
	h := NewHandler(cfg, f.svc, func(token string) Backend { return f.api })
	router := gin.New()
	router.PUT("/officials/:id", h.UpdateOfficial)

	w := putHandover(context.Background(), router)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, f.api.supervisors, 5)
	for emp := int64(31); emp <= 35; emp++ {
		assert.Equal(t, incomingEmployee, f.api.supervisors[emp])
	}
	assert.Len(t, f.runs.runs, 1)
}

func TestUpdateOfficialHandler_ClientDisconnectDoesNotAbortRun(t *testing.T) {
	f := newServiceFixture()
	f.api.officials = []models.StructuralOfficial{slot()}
	f.api.subordinates[outgoingEmployee] = []models.Subordinate{
		{EmployeeID: 71, Division: division},
		{EmployeeID: 72, Division: division},
	}
	router := newTestRouter(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	putHandover(ctx, router)

	assert.Equal(t, map[int64]int64{71: incomingEmployee, 72: incomingEmployee}, f.api.supervisors)
	assert.Len(t, f.runs.runs, 1)
}

func TestUpdateOfficialHandler_BadID(t *testing.T) {
	router := newTestRouter(newServiceFixture())

	req := httptest.NewRequest(http.MethodPut, "/officials/abc", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOfficialHandler_RejectsRankOutOfRange(t *testing.T) {
	router := newTestRouter(newServiceFixture())

	req := httptest.NewRequest(http.MethodPut, "/officials/1", bytes.NewReader([]byte(`{"pegawai_id":20,"level":7}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOfficialsHandler(t *testing.T) {
	f := newServiceFixture()
	f.api.officials = []models.StructuralOfficial{slot()}
	router := newTestRouter(f)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/officials?bidang=Bidang%20Keuangan&page=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.TotalCount)
	assert.Len(t, resp.Data.Officials, 1)
}

func TestListReassignmentsHandler(t *testing.T) {
	f := newServiceFixture()
	f.runs.runs = []*Run{{ID: "run-1", OfficialID: 1}, {ID: "run-2", OfficialID: 2}}
	router := newTestRouter(f)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/officials/1/reassignments", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-1", resp.Data[0].ID)
}
