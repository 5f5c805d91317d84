package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/iocgo/frames/framestest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, target string) (*httptest.ResponseRecorder, gjson.Result) {
	t.Helper()

	w := httptest.NewRecorder()
	NewEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	require.True(t, gjson.Valid(w.Body.String()), w.Body.String())
	return w, gjson.Parse(w.Body.String())
}

func TestChain(t *testing.T) {
	framestest.EachMode(t, func(t *testing.T) {
		w, body := serve(t, "/frames")
		require.Equal(t, http.StatusOK, w.Code)

		list := body.Get("frames").Array()
		require.NotEmpty(t, list)
		assert.Equal(t, "main.framesRouter.chain", list[0].Get("function").String())
		assert.Equal(t, list[0].Get("line").Int()-1, list[0].Get("lineno").Int())
		assert.Equal(t, "main", list[0].Get("package").String())

		for i := 1; i < len(list); i++ {
			assert.Equal(t, list[i-1].Get("depth").Int()-1, list[i].Get("depth").Int())
		}

		w, body = serve(t, "/frames?limit=2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, body.Get("frames").Array(), 2)
	})
}

func TestChainReportsMode(t *testing.T) {
	framestest.EachMode(t, func(t *testing.T) {
		_, body := serve(t, "/frames?limit=1")
		assert.Equal(t, t.Name()[len("TestChainReportsMode/"):], body.Get("mode").String())
	})
}

func TestChainBadLimit(t *testing.T) {
	w, body := serve(t, "/frames?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body.Get("error").String())
}

func TestLocate(t *testing.T) {
	framestest.EachMode(t, func(t *testing.T) {
		w, body := serve(t, "/frames/locate?function=handleHTTPRequest")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "github.com/gin-gonic/gin.(*Engine).handleHTTPRequest", body.Get("function").String())
		assert.Equal(t, "github.com/gin-gonic/gin", body.Get("package").String())

		w, body = serve(t, "/frames/locate?function=framesRouter.locate")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No matching frame found", body.Get("error").String())

		w, body = serve(t, "/frames/locate?function=framesRouter.locate&include_root=true")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "main.framesRouter.locate", body.Get("function").String())
	})
}

func TestLocateRequiresFunction(t *testing.T) {
	w, _ := serve(t, "/frames/locate")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackend(t *testing.T) {
	framestest.EachMode(t, func(t *testing.T) {
		w, body := serve(t, "/backend")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "native", body.Get("detected").String())
		assert.False(t, body.Get("error").Exists())
	})
}
