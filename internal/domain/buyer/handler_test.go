package buyer_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"buyerleads/internal/database"
	"buyerleads/internal/domain/buyer"
	"buyerleads/internal/repository"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, database.Migrate(context.Background(), db, nil))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := buyer.NewService(repository.NewStore(db), nil, nil)
	h := buyer.NewHandler(svc, nil, nil, 2)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	buyer.RegisterRoutes(v1, h, nil)
	return r
}

type envelope struct {
	Success    bool             `json:"success"`
	Data       json.RawMessage  `json:"data"`
	Pagination buyer.Pagination `json:"pagination"`
	Error      struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func doJSON(t *testing.T, r http.Handler, method, path, user string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User-ID", user)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") != "text/csv; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func createBody(name string) map[string]any {
	return map[string]any{
		"fullName":     name,
		"phone":        "9876543210",
		"city":         "Mohali",
		"propertyType": "Apartment",
		"bhk":          "Two",
		"purpose":      "Buy",
		"budgetMin":    3000000,
		"budgetMax":    4500000,
		"timeline":     "ZeroToThree",
		"source":       "Website",
		"tags":         []string{"hot"},
	}
}

func createBuyer(t *testing.T, r http.Handler, user, name string) buyer.Buyer {
	t.Helper()
	rr, env := doJSON(t, r, http.MethodPost, "/api/v1/buyers", user, createBody(name))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var b buyer.Buyer
	require.NoError(t, json.Unmarshal(env.Data, &b))
	return b
}

func TestBuyerHandler_CreateAndGet(t *testing.T) {
	r := setupTestRouter(t)
	b := createBuyer(t, r, "u1", "Aarav Sharma")

	assert.Equal(t, "u1", b.OwnerID)
	assert.Equal(t, buyer.StatusNew, b.Status)
	assert.Equal(t, int64(1), b.Version)

	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/buyers/"+b.ID, "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got buyer.Buyer
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, []string{"hot"}, got.Tags)

	var detail struct {
		History []buyer.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Len(t, detail.History, 1)
	assert.Equal(t, buyer.ActionCreated, detail.History[0].Action)

	rr, _ = doJSON(t, r, http.MethodGet, "/api/v1/buyers/"+b.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuyerHandler_CreateValidation(t *testing.T) {
	r := setupTestRouter(t)
	body := createBody("A")
	delete(body, "bhk")
	body["budgetMin"] = 5000000

	rr, env := doJSON(t, r, http.MethodPost, "/api/v1/buyers", "u1", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "fullName")
	assert.Contains(t, env.Error.Details, "bhk")
	assert.Contains(t, env.Error.Details, "budgetMax")
}

func TestBuyerHandler_CreateBadJSON(t *testing.T) {
	r := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User-ID", "u1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuyerHandler_ListIsOwnerScoped(t *testing.T) {
	r := setupTestRouter(t)
	createBuyer(t, r, "u1", "Mine One")
	createBuyer(t, r, "u1", "Mine Two")
	createBuyer(t, r, "u2", "Theirs")

	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/buyers?ownerId=u2&limit=1&sortBy=fullName&sortOrder=asc", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var data []buyer.Buyer
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data, 1)
	assert.Equal(t, "Mine One", data[0].FullName)
	assert.Equal(t, int64(2), env.Pagination.Total)
	assert.True(t, env.Pagination.HasNext)
}

func TestBuyerHandler_UpdateFlow(t *testing.T) {
	r := setupTestRouter(t)
	b := createBuyer(t, r, "u1", "Priya Gill")
	path := "/api/v1/buyers/" + b.ID

	rr, env := doJSON(t, r, http.MethodPut, path, "u1", map[string]any{"status": "Qualified", "version": 1})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated buyer.Buyer
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, buyer.StatusQualified, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	rr, env = doJSON(t, r, http.MethodPut, path, "u1", map[string]any{"status": "Visited", "version": 1})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	rr, _ = doJSON(t, r, http.MethodPut, path, "u2", map[string]any{"status": "Visited"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = doJSON(t, r, http.MethodPut, path, "u1", map[string]any{"clearBhk": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, env = doJSON(t, r, http.MethodGet, path+"/history", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history []buyer.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, buyer.ActionUpdated, history[0].Action)
	assert.Equal(t, "Qualified", history[0].Diff["status"].To)

	rr, env = doJSON(t, r, http.MethodGet, path+"/history", "u2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestBuyerHandler_Delete(t *testing.T) {
	r := setupTestRouter(t)
	b := createBuyer(t, r, "u1", "Karan Verma")
	path := "/api/v1/buyers/" + b.ID

	rr, _ := doJSON(t, r, http.MethodDelete, path, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = doJSON(t, r, http.MethodDelete, path, "u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = doJSON(t, r, http.MethodGet, path, "u1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/buyers/activity?limit=5", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var activity []buyer.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	require.Len(t, activity, 2)
	assert.Equal(t, buyer.ActionDeleted, activity[0].Action)
}

func TestBuyerHandler_Stats(t *testing.T) {
	r := setupTestRouter(t)
	createBuyer(t, r, "u1", "Stat One")
	createBuyer(t, r, "u1", "Stat Two")

	rr, env := doJSON(t, r, http.MethodGet, "/api/v1/buyers/stats", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats buyer.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.ByCity["Mohali"])
	assert.Equal(t, int64(0), stats.ByCity["Zirakpur"])
}

func TestBuyerHandler_ExportCSV(t *testing.T) {
	r := setupTestRouter(t)
	createBuyer(t, r, "u1", "Export Me")
	createBuyer(t, r, "u2", "Not Me")

	rr, _ := doJSON(t, r, http.MethodGet, "/api/v1/buyers/export", "u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "buyers-export-")

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, buyer.ExportHeaders, records[0])
	assert.Equal(t, "Export Me", records[1][0])
	assert.Equal(t, "hot", records[1][13])
}

func TestBuyerHandler_ImportJSON(t *testing.T) {
	r := setupTestRouter(t)
	good := map[string]any{
		"Full Name": "Imported Lead", "Phone": "9876543210", "City": "Zirakpur",
		"Property Type": "Plot", "Purpose": "Buy", "Timeline": "SixPlus", "Source": "Referral",
		"Budget Min": 1500000, "Tags": []string{"csv", "batch"},
	}
	bad := map[string]any{"Full Name": "Bad", "Phone": "1"}

	rr, env := doJSON(t, r, http.MethodPost, "/api/v1/buyers/import", "u1", map[string]any{
		"data":       []any{good, bad, good},
		"skipErrors": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res buyer.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, []string{"csv", "batch"}, res.Created[0].Tags)
	assert.Equal(t, 1500000, *res.Created[0].BudgetMin)
}

func TestBuyerHandler_ImportCSVStopsAtLimit(t *testing.T) {
	r := setupTestRouter(t)

	var file bytes.Buffer
	w := csv.NewWriter(&file)
	_ = w.Write([]string{"Full Name", "Phone", "City", "Property Type", "Purpose", "Timeline", "Source"})
	_ = w.Write([]string{"X", "1", "Mohali", "Plot", "Buy", "SixPlus", "Call"})
	_ = w.Write([]string{"Y", "2", "Mohali", "Plot", "Buy", "SixPlus", "Call"})
	_ = w.Write([]string{"Valid Lead", "9876543210", "Mohali", "Plot", "Buy", "SixPlus", "Call"})
	w.Flush()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "buyers.csv")
	require.NoError(t, err)
	_, _ = part.Write(file.Bytes())
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/buyers/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User-ID", "u1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	var res buyer.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	// the handler allows two failures before giving up
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, res.Successful)
}

func TestBuyerHandler_ImportEmpty(t *testing.T) {
	r := setupTestRouter(t)
	rr, env := doJSON(t, r, http.MethodPost, "/api/v1/buyers/import", "u1", map[string]any{"data": []any{}})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "EMPTY_IMPORT", env.Error.Code)
}
