package publications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/auth"
	"github.com/newsstandhq/newsstand/pkg/binder"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/etag"
	"github.com/newsstandhq/newsstand/pkg/models"
	"github.com/newsstandhq/newsstand/pkg/testutils/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testServer struct {
	e           *echo.Echo
	db          *bun.DB
	authService *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testdb.New(t)
	authService := auth.NewService(db, "test-jwt-secret")

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	RegisterRoutesWithGroup(e.Group("/api/publications"), NewService(db, ServiceOptions{}), auth.NewMiddleware(authService))

	return &testServer{e: e, db: db, authService: authService}
}

func (ts *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := ts.authService.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	ts.e.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error.Code
}

const createBody = `{"title":"X","type":"magazine","price_monthly":5.0,"price_yearly":50.0}`

func TestHandler_Create(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	admin := testdb.CreateAdmin(t, ts.db)
	user := testdb.CreateUser(t, ts.db, testdb.UserOptions{})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rr := ts.do(http.MethodPost, "/api/publications", "", createBody)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		rr := ts.do(http.MethodPost, "/api/publications", ts.token(t, user), createBody)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin creates", func(t *testing.T) {
		rr := ts.do(http.MethodPost, "/api/publications", ts.token(t, admin), createBody)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var pub map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pub))
		assert.NotZero(t, pub["id"])
		assert.Equal(t, "X", pub["title"])
		assert.Equal(t, true, pub["is_available"])
		assert.Equal(t, true, pub["is_visible"])
		assert.Nil(t, pub["description"])
	})

	t.Run("validation failures are 422", func(t *testing.T) {
		for _, body := range []string{
			`{"title":"X","type":"comic","price_monthly":5,"price_yearly":50}`,
			`{"title":"X","type":"magazine","price_monthly":0,"price_yearly":50}`,
			`{"title":"   ","type":"magazine","price_monthly":5,"price_yearly":50}`,
			`{"type":"magazine","price_monthly":5,"price_yearly":50}`,
			`{"title":"X","type":"magazine","price_monthly":5,"price_yearly":50,"cover_image_url":"not a url"}`,
		} {
			rr := ts.do(http.MethodPost, "/api/publications", ts.token(t, admin), body)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, body)
		}
	})
}

func TestHandler_List(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	visible := testdb.CreatePublication(t, ts.db, nil)
	testdb.CreatePublication(t, ts.db, &models.Publication{State: models.PublicationStateHidden})

	rr := ts.do(http.MethodGet, "/api/publications", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var pubs []struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pubs))
	require.Len(t, pubs, 1)
	assert.Equal(t, visible.ID, pubs[0].ID)

	tag := rr.Header().Get(etag.HeaderETag)
	require.NotEmpty(t, tag)

	rr = ts.do(http.MethodGet, "/api/publications", "", "", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())

	t.Run("limit out of range", func(t *testing.T) {
		rr := ts.do(http.MethodGet, "/api/publications?limit=101", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		rr = ts.do(http.MethodGet, "/api/publications?limit=0", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("type filter", func(t *testing.T) {
		rr := ts.do(http.MethodGet, "/api/publications?type=newspaper", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())

		rr = ts.do(http.MethodGet, "/api/publications?type=comic", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("empty type means no filter", func(t *testing.T) {
		rr := ts.do(http.MethodGet, "/api/publications?type=", "", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var got []struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, visible.ID, got[0].ID)
	})
}

func TestHandler_ListAll(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	admin := testdb.CreateAdmin(t, ts.db)
	user := testdb.CreateUser(t, ts.db, testdb.UserOptions{})
	testdb.CreatePublication(t, ts.db, nil)
	testdb.CreatePublication(t, ts.db, &models.Publication{State: models.PublicationStateHidden})

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/publications/all", "", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/publications/all", ts.token(t, user), "").Code)

	rr := ts.do(http.MethodGet, "/api/publications/all", ts.token(t, admin), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var pubs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pubs))
	assert.Len(t, pubs, 2)
}

func TestHandler_Retrieve(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	admin := testdb.CreateAdmin(t, ts.db)
	hidden := testdb.CreatePublication(t, ts.db, &models.Publication{State: models.PublicationStateHidden})
	path := "/api/publications/" + strconv.Itoa(hidden.ID)

	rr := ts.do(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(t, rr))

	rr = ts.do(http.MethodGet, path, ts.token(t, admin), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"is_visible":false`)

	// A garbage token on an optional route is treated as anonymous.
	rr = ts.do(http.MethodGet, path, "garbage", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(http.MethodGet, "/api/publications/abc", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	admin := testdb.CreateAdmin(t, ts.db)
	user := testdb.CreateUser(t, ts.db, testdb.UserOptions{})
	pub := testdb.CreatePublication(t, ts.db, &models.Publication{Description: strPtr("old")})
	path := "/api/publications/" + strconv.Itoa(pub.ID)

	t.Run("non-admin is forbidden before the id is looked at", func(t *testing.T) {
		rr := ts.do(http.MethodPut, "/api/publications/abc", ts.token(t, user), `{"title":"Y"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		rr = ts.do(http.MethodDelete, "/api/publications/9999", ts.token(t, user), "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin updates", func(t *testing.T) {
		rr := ts.do(http.MethodPut, path, ts.token(t, admin), `{"description":"  ","is_visible":false}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Nil(t, body["description"])
		assert.Equal(t, false, body["is_visible"])
		assert.Equal(t, true, body["is_available"])
	})

	t.Run("is_available false is rejected", func(t *testing.T) {
		rr := ts.do(http.MethodPut, path, ts.token(t, admin), `{"is_available":false}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rr := ts.do(http.MethodPut, path, ts.token(t, admin), `{"state":"deleted"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		rr := ts.do(http.MethodDelete, path, ts.token(t, admin), "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		rr = ts.do(http.MethodDelete, path, ts.token(t, admin), "")
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = ts.do(http.MethodGet, path, ts.token(t, admin), "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		rr = ts.do(http.MethodPut, path, ts.token(t, admin), `{"title":"Back"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete of unknown id", func(t *testing.T) {
		rr := ts.do(http.MethodDelete, "/api/publications/9999", ts.token(t, admin), "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
