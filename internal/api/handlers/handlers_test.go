package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocomet/taxi-fare/internal/api/handlers"
	"github.com/gocomet/taxi-fare/internal/api/middleware"
	"github.com/gocomet/taxi-fare/internal/api/routes"
	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/internal/repository/memory"
	"github.com/gocomet/taxi-fare/internal/service/lifecycle"
	"github.com/gocomet/taxi-fare/internal/service/prediction"
	"github.com/gocomet/taxi-fare/pkg/cache"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHub struct{}

func (fakeHub) ServeWS(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) }
func (fakeHub) GetActiveConnections() int { return 2 }

type apiFixture struct {
	router *gin.Engine
	calls  *int32
}

func newAPI(t *testing.T, predict prediction.PredictorFunc, idem middleware.IdempotencyStore) apiFixture {
	t.Helper()
	var calls int32
	counted := prediction.PredictorFunc(func(ctx context.Context, f trip.Features) (decimal.NullDecimal, error) {
		atomic.AddInt32(&calls, 1)
		return predict(ctx, f)
	})

	repo := memory.NewTripRepository()
	orch := prediction.NewOrchestrator(counted, repo, logger.Nop(), prediction.DefaultConfig())
	svc := lifecycle.NewService(repo, logger.Nop())
	h := handlers.NewHandlers(orch, svc, fakeHub{}, logger.Nop())

	r := gin.New()
	routes.SetupRoutes(r, h, routes.Options{Idempotency: idem})
	return apiFixture{router: r, calls: &calls}
}

func fixedPrice(amount string) prediction.PredictorFunc {
	return func(context.Context, trip.Features) (decimal.NullDecimal, error) {
		return decimal.NewNullDecimal(decimal.RequireFromString(amount)), nil
	}
}

func (a apiFixture) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (a apiFixture) createTrip(t *testing.T) string {
	t.Helper()
	w, body := a.do(t, http.MethodPost, "/v1/predictions", `{"distance_km": 12.5, "duration_min": 25}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body["id"].(string)
}

func TestCreatePrediction_Success(t *testing.T) {
	api := newAPI(t, fixedPrice("25.5"), nil)

	w, body := api.do(t, http.MethodPost, "/v1/predictions",
		`{"distance_km": 12.5, "duration_min": 25, "vehicle_type": "PREMIUM", "origin_zone": "A", "destination_zone": "B"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, "/v1/trips/"+id.String(), w.Header().Get("Location"))
	assert.Equal(t, 25.5, body["estimated_price"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "PREMIUM", body["vehicle_type"])
	assert.Equal(t, "A", body["origin_zone"])
	assert.NotContains(t, body, "end_time")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCreatePrediction_PriceHasTwoDecimals(t *testing.T) {
	api := newAPI(t, fixedPrice("25"), nil)

	w, _ := api.do(t, http.MethodPost, "/v1/predictions", `{"distance_km": 1, "duration_min": 1}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"estimated_price":25.00`)
}

func TestCreatePrediction_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero distance", body: `{"distance_km": 0, "duration_min": 10}`},
		{name: "negative duration", body: `{"distance_km": 5, "duration_min": -1}`},
		{name: "missing duration", body: `{"distance_km": 5}`},
		{name: "unknown vehicle type", body: `{"distance_km": 5, "duration_min": 10, "vehicle_type": "BUS"}`},
		{name: "hour out of range", body: `{"distance_km": 5, "duration_min": 10, "hour_of_day": 24}`},
		{name: "malformed json", body: `{"distance_km": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newAPI(t, fixedPrice("25.50"), nil)

			w, body := api.do(t, http.MethodPost, "/v1/predictions", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			assert.NotEmpty(t, body["request_id"])
			assert.EqualValues(t, 0, atomic.LoadInt32(api.calls))
		})
	}
}

func TestCreatePrediction_PredictorFailures(t *testing.T) {
	tests := []struct {
		name    string
		predict prediction.PredictorFunc
	}{
		{
			name: "service unavailable",
			predict: func(context.Context, trip.Features) (decimal.NullDecimal, error) {
				return decimal.NullDecimal{}, trip.ErrServiceUnavailable
			},
		},
		{
			name: "null price",
			predict: func(context.Context, trip.Features) (decimal.NullDecimal, error) {
				return decimal.NullDecimal{}, nil
			},
		},
		{name: "negative price", predict: fixedPrice("-1")},
		{name: "three decimals", predict: fixedPrice("10.123")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newAPI(t, tt.predict, nil)

			w, body := api.do(t, http.MethodPost, "/v1/predictions", `{"distance_km": 5, "duration_min": 10}`)

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, "PREDICTION_SERVICE_UNAVAILABLE", body["code"])

			_, list := api.do(t, http.MethodGet, "/v1/trips", "")
			assert.EqualValues(t, 0, list["total_items"])
		})
	}
}

func TestTripLifecycle_OverHTTP(t *testing.T) {
	api := newAPI(t, fixedPrice("25.50"), nil)
	id := api.createTrip(t)

	for _, step := range []struct {
		action string
		status string
	}{
		{"accept", "ACCEPTED"},
		{"start", "IN_PROGRESS"},
		{"complete", "COMPLETED"},
	} {
		w, body := api.do(t, http.MethodPatch, "/v1/trips/"+id+"/"+step.action, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, step.status, body["status"])
	}

	w, body := api.do(t, http.MethodGet, "/v1/trips/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Contains(t, body, "end_time")

	w, body = api.do(t, http.MethodPatch, "/v1/trips/"+id+"/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

func TestTripTransitions_Rejected(t *testing.T) {
	api := newAPI(t, fixedPrice("25.50"), nil)
	id := api.createTrip(t)

	w, body := api.do(t, http.MethodPatch, "/v1/trips/"+id+"/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])

	w, _ = api.do(t, http.MethodPatch, "/v1/trips/"+id+"/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, http.MethodPatch, "/v1/trips/"+id+"/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetTrip_Errors(t *testing.T) {
	api := newAPI(t, fixedPrice("25.50"), nil)

	w, body := api.do(t, http.MethodGet, "/v1/trips/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])

	w, body = api.do(t, http.MethodGet, "/v1/trips/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	w, _ = api.do(t, http.MethodPatch, "/v1/trips/"+uuid.NewString()+"/accept", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTrips(t *testing.T) {
	api := newAPI(t, fixedPrice("25.50"), nil)
	for range 3 {
		api.createTrip(t)
		time.Sleep(time.Millisecond)
	}

	w, body := api.do(t, http.MethodGet, "/v1/trips?page=0&size=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 2)
	assert.EqualValues(t, 3, body["total_items"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.EqualValues(t, 2, body["size"])

	w, body = api.do(t, http.MethodGet, "/v1/trips?page=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])
	assert.EqualValues(t, 20, body["size"])

	w, body = api.do(t, http.MethodGet, "/v1/trips?size=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestCreatePrediction_IdempotencyKeyReplays(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	api := newAPI(t, fixedPrice("25.50"), cache.NewIdempotencyStore(rdb, time.Hour))

	body := `{"distance_km": 12.5, "duration_min": 25}`
	w1, first := api.do(t, http.MethodPost, "/v1/predictions", body, middleware.IdempotencyHeader, "order-1")
	w2, second := api.do(t, http.MethodPost, "/v1/predictions", body, middleware.IdempotencyHeader, "order-1")

	require.Equal(t, http.StatusCreated, w1.Code)
	require.Equal(t, http.StatusCreated, w2.Code)
	assert.Equal(t, first["id"], second["id"])
	assert.EqualValues(t, 1, atomic.LoadInt32(api.calls))

	_, list := api.do(t, http.MethodGet, "/v1/trips", "")
	assert.EqualValues(t, 1, list["total_items"])
}

func TestHealth(t *testing.T) {
	api := newAPI(t, fixedPrice("25.50"), nil)

	w, body := api.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 2, body["websocket_clients"])
}

