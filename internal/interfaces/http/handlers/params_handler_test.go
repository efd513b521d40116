package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/application/service"
)

func paramsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewParamsHandler(service.NewParamsAppService(nil, nil))
	router := gin.New()
	router.POST("/validate", h.Validate)
	router.POST("/coerce", h.Coerce)
	router.POST("/schema", h.Schema)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestParamsHandler_Coerce(t *testing.T) {
	router := paramsRouter()

	rr := postJSON(router, "/coerce", `{
		"definitions": [
			{"name": "amount", "type": "UINT256", "description": "wei"},
			{"name": "flags", "type": "bool_array"},
			{"name": "recipients", "type": 7}
		],
		"values": {
			"amount": 115792089237316195423570985008687907853269984665640564039457584007913129639935,
			"flags": "true,0,1,",
			"recipients": ["0x9858EfFD232B4033E47d90003D41EC34EcaEda94"]
		}
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	var resp struct {
		Valid   bool `json:"valid"`
		Results []struct {
			Name  string      `json:"name"`
			Type  string      `json:"type"`
			Value interface{} `json:"value"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Valid)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "amount", resp.Results[0].Name)
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", resp.Results[0].Value)
	assert.Equal(t, "BOOL_ARRAY", resp.Results[1].Type)
	assert.Equal(t, []interface{}{true, false, true}, resp.Results[1].Value)
	assert.Equal(t, "ADDRESS_ARRAY", resp.Results[2].Type)
}

func TestParamsHandler_Validate(t *testing.T) {
	router := paramsRouter()

	rr := postJSON(router, "/validate", `{
		"definitions": [{"name": "amount", "type": "UINT256"}],
		"values": {"amount": "-5"}
	}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"valid":false`)
	assert.Contains(t, rr.Body.String(), "Must be a valid non-negative integer or empty")

	t.Run("malformed definitions", func(t *testing.T) {
		for _, body := range []string{
			`not json`,
			`{"values": {}}`,
			`{"definitions": [{"name": "a", "type": "FLOAT"}]}`,
			`{"definitions": [{"name": "", "type": "STRING"}]}`,
		} {
			rr := postJSON(router, "/validate", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		}
	})
}

func TestParamsHandler_Schema(t *testing.T) {
	router := paramsRouter()

	rr := postJSON(router, "/schema", `{"definitions": [{"name": "to", "type": "address", "description": "Recipient"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	var resp dto.SchemaResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Parameters, 1)
	assert.Equal(t, "address", resp.Parameters[0].MCPType)
	assert.Equal(t, `^(0x[a-fA-F0-9]{40}|0x\.\.\.)?$`, resp.Parameters[0].JSONSchema["pattern"])
	assert.Equal(t, "object", resp.JSONSchema["type"])
}
