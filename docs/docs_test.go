package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"github.com/jhoicas/storemax-api/docs"
)

func TestReadDoc(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "StoreMax API", doc.Info.Title)
	for _, p := range []string{"/api/auth/login", "/api/products/{id}", "/api/sales", "/ws"} {
		assert.Contains(t, doc.Paths, p)
	}
}
